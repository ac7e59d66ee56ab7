package webdav

import (
	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// RegisterACLCodecs 注册RFC 3744属性的编解码
//
// acl 和 current-user-privilege-set 的解码需要权限表，所以参数是整个 Codecs。
func RegisterACLCodecs(c *Codecs) error {
	acl := aclCodec{codecs: c}
	registrations := []struct {
		local  string
		decode DecodeFunc
		encode EncodeFunc
	}{
		{"acl", acl.decodeAcl, acl.encodeAcl},
		{"current-user-privilege-set", acl.decodePrivilegeSet, acl.encodePrivilegeSet},
		{"principal-collection-set", decodeHrefList, encodeHrefList},
		{"inherited-acl-set", decodeHrefList, encodeHrefList},
	}
	for _, r := range registrations {
		if err := c.Properties.Register(types.NamespaceDAV, r.local, r.decode, r.encode); err != nil {
			return err
		}
	}
	return nil
}

type aclCodec struct {
	codecs *Codecs
}

func (a aclCodec) decodeAcl(nodes []etree.Token) (any, error) {
	container := xmlutil.NewDAVElement("acl")
	for _, node := range xmlutil.Detach(nodes) {
		container.AddChild(node)
	}
	return ParseAcl(container, a.codecs)
}

func (a aclCodec) encodeAcl(value any, doc *etree.Element) ([]etree.Token, error) {
	acl, ok := value.(*Acl)
	if !ok || acl == nil {
		return nil, types.NewError(types.KindWrongType, "expected *Acl, got %T", value)
	}
	for i, ace := range acl.Aces() {
		el, err := ace.ToElement()
		if err != nil {
			return nil, types.WrapError(types.KindOf(err), err, "ace %d", i)
		}
		doc.AddChild(el)
	}
	return doc.Child, nil
}

func (a aclCodec) decodePrivilegeSet(nodes []etree.Token) (any, error) {
	privileges := []*Privilege{}
	for _, node := range nodes {
		el, ok := node.(*etree.Element)
		if !ok {
			continue
		}
		target := el
		if xmlutil.Is(el, types.NamespaceDAV, "privilege") {
			target = xmlutil.FirstChildElement(el)
			if target == nil {
				return nil, types.NewError(types.KindWrongXML, "empty privilege element")
			}
		}
		p, err := NewPrivilegeFromElement(a.codecs.privileges(), target)
		if err != nil {
			return nil, err
		}
		privileges = append(privileges, p)
	}
	return privileges, nil
}

func (a aclCodec) encodePrivilegeSet(value any, doc *etree.Element) ([]etree.Token, error) {
	privileges, ok := value.([]*Privilege)
	if !ok {
		return nil, types.NewError(types.KindWrongType, "expected []*Privilege, got %T", value)
	}
	for _, p := range privileges {
		if p == nil {
			return nil, types.NewError(types.KindWrongType, "privilege is nil")
		}
		el, err := p.ToElement()
		if err != nil {
			return nil, err
		}
		wrapper := xmlutil.NewDAVElement("privilege")
		wrapper.AddChild(el)
		doc.AddChild(wrapper)
	}
	return doc.Child, nil
}
