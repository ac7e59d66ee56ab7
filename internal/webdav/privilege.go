package webdav

import (
	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// Privilege ACL权限，如 {DAV:}read、{DAV:}write-properties
//
// 与 Property 共享原始XML/解码值双视图，使用权限编解码表。
type Privilege struct {
	payload
}

// NewPrivilege 创建权限
func NewPrivilege(codecs *CodecRegistry, namespace, local string) *Privilege {
	return &Privilege{payload: newPayload(codecs, namespace, local, "privilege")}
}

// NewPrivilegeFromElement 从元素创建权限
func NewPrivilegeFromElement(codecs *CodecRegistry, el *etree.Element) (*Privilege, error) {
	if el == nil {
		return nil, types.NewError(types.KindWrongType, "privilege element is nil")
	}
	p := NewPrivilege(codecs, el.NamespaceURI(), el.Tag)
	if err := p.SetRawXML(xmlutil.ChildNodes(el)); err != nil {
		return nil, err
	}
	p.setAttrs(el)
	return p, nil
}

// ToElement 生成 <ns:local>...</ns:local>，不包含外层 <privilege>
func (p *Privilege) ToElement() (*etree.Element, error) {
	return p.element()
}
