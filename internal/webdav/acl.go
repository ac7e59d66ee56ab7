package webdav

import (
	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// Acl 有序的ACE列表，顺序即求值顺序
type Acl struct {
	aces []*Ace
}

// NewAcl 创建空的ACL
func NewAcl() *Acl {
	return &Acl{}
}

// Len ACE数量
func (a *Acl) Len() int {
	return len(a.aces)
}

// Aces 全部ACE的副本
func (a *Acl) Aces() []*Ace {
	return append([]*Ace(nil), a.aces...)
}

// GetAce 按下标获取ACE
func (a *Acl) GetAce(index int) (*Ace, error) {
	if index < 0 || index >= len(a.aces) {
		return nil, types.NewError(types.KindUnexistingProperty, "no ace at index %d (acl has %d)", index, len(a.aces))
	}
	return a.aces[index], nil
}

// AddAce 添加ACE，不指定位置时追加到末尾，否则等同于 AddAceAt
func (a *Acl) AddAce(ace *Ace, position ...int) error {
	if len(position) > 0 {
		return a.AddAceAt(ace, position[0])
	}
	if ace == nil {
		return types.NewError(types.KindWrongType, "ace is nil")
	}
	a.aces = append(a.aces, ace)
	return nil
}

// AddAceAt 在指定位置插入ACE
//
// position 大于最后一个下标时追加到末尾，小于1时插入到开头。
func (a *Acl) AddAceAt(ace *Ace, position int) error {
	if ace == nil {
		return types.NewError(types.KindWrongType, "ace is nil")
	}
	switch {
	case position > len(a.aces)-1:
		a.aces = append(a.aces, ace)
	case position < 1:
		a.aces = append([]*Ace{ace}, a.aces...)
	default:
		a.aces = append(a.aces, nil)
		copy(a.aces[position+1:], a.aces[position:])
		a.aces[position] = ace
	}
	return nil
}

// ParseAcl 解析 <acl> 元素
func ParseAcl(el *etree.Element, codecs *Codecs) (*Acl, error) {
	if !xmlutil.Is(el, types.NamespaceDAV, "acl") {
		return nil, types.NewError(types.KindWrongXML, "expected {DAV:}acl element")
	}
	acl := NewAcl()
	for _, child := range xmlutil.DAVChildren(el) {
		if child.Tag != "ace" {
			continue
		}
		ace, err := ParseAce(child, codecs)
		if err != nil {
			return nil, err
		}
		acl.aces = append(acl.aces, ace)
	}
	return acl, nil
}

// ToElement 生成 <acl> 元素
func (a *Acl) ToElement() (*etree.Element, error) {
	el := xmlutil.NewDAVElement("acl")
	for i, ace := range a.aces {
		child, err := ace.ToElement()
		if err != nil {
			return nil, types.WrapError(types.KindOf(err), err, "ace %d", i)
		}
		el.AddChild(child)
	}
	return el, nil
}
