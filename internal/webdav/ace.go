package webdav

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// ===== Principal =====

// Principal ACE的主体：PrincipalConstant、PrincipalHref 或 PrincipalProperty
type Principal interface {
	isPrincipal()
}

// PrincipalConstant 伪主体
type PrincipalConstant int

const (
	PrincipalAll PrincipalConstant = iota + 1
	PrincipalAuthenticated
	PrincipalUnauthenticated
	PrincipalSelf
)

var principalConstantNames = map[PrincipalConstant]string{
	PrincipalAll:             "all",
	PrincipalAuthenticated:   "authenticated",
	PrincipalUnauthenticated: "unauthenticated",
	PrincipalSelf:            "self",
}

func (PrincipalConstant) isPrincipal() {}

func (c PrincipalConstant) String() string {
	if name, ok := principalConstantNames[c]; ok {
		return name
	}
	return fmt.Sprintf("PrincipalConstant(%d)", int(c))
}

// PrincipalHref 以URL标识的主体
type PrincipalHref string

func (PrincipalHref) isPrincipal() {}

// PrincipalProperty 由资源上某个属性标识的主体，如 {DAV:}owner
type PrincipalProperty struct {
	Property *Property
}

func (PrincipalProperty) isPrincipal() {}

// GrantDeny ACE授予还是拒绝
type GrantDeny int

const (
	GrantDenyUnset GrantDeny = iota
	Grant
	Deny
)

func (g GrantDeny) String() string {
	switch g {
	case Grant:
		return "grant"
	case Deny:
		return "deny"
	default:
		return "unset"
	}
}

// ===== Ace =====

// Ace 访问控制项 (RFC 3744)
type Ace struct {
	Principal       Principal
	InvertPrincipal bool
	IsProtected     bool
	// InheritedFrom 继承来源的URL，空串表示不是继承的
	InheritedFrom string

	grantDeny  GrantDeny
	privileges keyedIndex[*Privilege]
}

// NewAce 创建空的ACE
func NewAce() *Ace {
	return &Ace{}
}

// GrantDeny 返回授予/拒绝标记
func (a *Ace) GrantDeny() GrantDeny {
	return a.grantDeny
}

// SetGrantDeny 设置授予/拒绝，只接受 Grant 或 Deny
func (a *Ace) SetGrantDeny(g GrantDeny) error {
	if g != Grant && g != Deny {
		return types.NewError(types.KindWrongValue, "grantdeny must be grant or deny, got %d", int(g))
	}
	a.grantDeny = g
	return nil
}

// AddPrivilege 添加权限，同名权限会被替换
func (a *Ace) AddPrivilege(p *Privilege) error {
	if p == nil {
		return types.NewError(types.KindWrongType, "privilege is nil")
	}
	if p.Namespace() == "" {
		return types.NewError(types.KindWrongType, "privilege %q has no namespace", p.LocalName())
	}
	a.privileges.put(p.Namespace(), p.LocalName(), p)
	return nil
}

// Privilege 按命名空间和本地名获取权限
func (a *Ace) Privilege(namespace, local string) (*Privilege, bool) {
	return a.privileges.get(namespace, local)
}

// NamespaceNames 出现过的命名空间
func (a *Ace) NamespaceNames() []string {
	return a.privileges.namespaceNames()
}

// PrivilegeNames 指定命名空间下的权限本地名
func (a *Ace) PrivilegeNames(namespace string) []string {
	return a.privileges.names(namespace)
}

// Privileges 全部权限
func (a *Ace) Privileges() []*Privilege {
	return a.privileges.all()
}

// ParseAce 解析 <ace> 元素
func ParseAce(el *etree.Element, codecs *Codecs) (*Ace, error) {
	if !xmlutil.Is(el, types.NamespaceDAV, "ace") {
		return nil, types.NewError(types.KindWrongXML, "expected {DAV:}ace element")
	}

	ace := NewAce()
	for _, child := range xmlutil.DAVChildren(el) {
		switch child.Tag {
		case "principal":
			principal, err := parsePrincipal(child, codecs)
			if err != nil {
				return nil, err
			}
			ace.Principal = principal
			ace.InvertPrincipal = false
		case "invert":
			inner := davChild(child, "principal")
			if inner == nil {
				return nil, types.NewError(types.KindWrongXML, "invert without principal")
			}
			principal, err := parsePrincipal(inner, codecs)
			if err != nil {
				return nil, err
			}
			ace.Principal = principal
			ace.InvertPrincipal = true
		case "grant", "deny":
			if child.Tag == "grant" {
				ace.grantDeny = Grant
			} else {
				ace.grantDeny = Deny
			}
			if err := parsePrivileges(ace, child, codecs); err != nil {
				return nil, err
			}
		case "protected":
			ace.IsProtected = true
		case "inherited":
			href := davChild(child, "href")
			if href == nil {
				return nil, types.NewError(types.KindWrongXML, "inherited without href")
			}
			ace.InheritedFrom = xmlutil.Text(href)
		}
	}
	return ace, nil
}

// parsePrincipal 解析 <principal> 的内容，必须恰好包含一个可识别的子元素
func parsePrincipal(el *etree.Element, codecs *Codecs) (Principal, error) {
	var found []Principal
	for _, child := range xmlutil.DAVChildren(el) {
		switch child.Tag {
		case "href":
			found = append(found, PrincipalHref(xmlutil.Text(child)))
		case "all":
			found = append(found, PrincipalAll)
		case "authenticated":
			found = append(found, PrincipalAuthenticated)
		case "unauthenticated":
			found = append(found, PrincipalUnauthenticated)
		case "self":
			found = append(found, PrincipalSelf)
		case "property":
			target := xmlutil.FirstChildElement(child)
			if target == nil {
				return nil, types.NewError(types.KindWrongXML, "principal property without element")
			}
			p, err := NewPropertyFromElement(codecs.properties(), target)
			if err != nil {
				return nil, err
			}
			found = append(found, PrincipalProperty{Property: p})
		default:
			return nil, types.NewError(types.KindWrongXML, "unknown principal {DAV:}%s", child.Tag)
		}
	}
	if len(found) != 1 {
		return nil, types.NewError(types.KindWrongXML, "principal must contain exactly one value, got %d", len(found))
	}
	return found[0], nil
}

// parsePrivileges 解析 <grant>/<deny> 的子元素
//
// 标准写法是 <privilege><read/></privilege>，也接受直接写 <read/>。
func parsePrivileges(ace *Ace, el *etree.Element, codecs *Codecs) error {
	for _, child := range el.ChildElements() {
		target := child
		if xmlutil.Is(child, types.NamespaceDAV, "privilege") {
			target = xmlutil.FirstChildElement(child)
			if target == nil {
				return types.NewError(types.KindWrongXML, "empty privilege element")
			}
		}
		p, err := NewPrivilegeFromElement(codecs.privileges(), target)
		if err != nil {
			return err
		}
		if err := ace.AddPrivilege(p); err != nil {
			return err
		}
	}
	return nil
}

// ToElement 生成 <ace> 元素
func (a *Ace) ToElement() (*etree.Element, error) {
	if a.Principal == nil {
		return nil, types.NewError(types.KindWrongValue, "ace principal is not set")
	}
	if a.grantDeny != Grant && a.grantDeny != Deny {
		return nil, types.NewError(types.KindWrongValue, "ace grantdeny is not set")
	}

	el := xmlutil.NewDAVElement("ace")

	principal, err := principalElement(a.Principal)
	if err != nil {
		return nil, err
	}
	if a.InvertPrincipal {
		invert := xmlutil.NewDAVElement("invert")
		invert.AddChild(principal)
		el.AddChild(invert)
	} else {
		el.AddChild(principal)
	}

	grant := xmlutil.NewDAVElement(a.grantDeny.String())
	for _, p := range a.Privileges() {
		privEl, err := p.ToElement()
		if err != nil {
			return nil, err
		}
		wrapper := xmlutil.NewDAVElement("privilege")
		wrapper.AddChild(privEl)
		grant.AddChild(wrapper)
	}
	el.AddChild(grant)

	if a.IsProtected {
		el.AddChild(xmlutil.NewDAVElement("protected"))
	}
	if a.InheritedFrom != "" {
		inherited := xmlutil.NewDAVElement("inherited")
		inherited.AddChild(textElement("href", a.InheritedFrom))
		el.AddChild(inherited)
	}
	return el, nil
}

func principalElement(principal Principal) (*etree.Element, error) {
	el := xmlutil.NewDAVElement("principal")
	switch p := principal.(type) {
	case PrincipalConstant:
		name, ok := principalConstantNames[p]
		if !ok {
			return nil, types.NewError(types.KindWrongValue, "unknown principal constant %d", int(p))
		}
		el.AddChild(xmlutil.NewDAVElement(name))
	case PrincipalHref:
		el.AddChild(textElement("href", string(p)))
	case PrincipalProperty:
		if p.Property == nil {
			return nil, types.NewError(types.KindWrongValue, "principal property is nil")
		}
		target, err := p.Property.ToElement()
		if err != nil {
			return nil, err
		}
		property := xmlutil.NewDAVElement("property")
		property.AddChild(target)
		el.AddChild(property)
	default:
		return nil, types.NewError(types.KindWrongType, "unsupported principal type %T", principal)
	}
	return el, nil
}
