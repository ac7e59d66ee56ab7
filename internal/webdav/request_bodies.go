package webdav

import (
	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// PropfindMode PROPFIND请求体的三种形式
type PropfindMode int

const (
	PropfindProps PropfindMode = iota
	PropfindAllProp
	PropfindPropName
)

// PropfindBody 生成 <propfind> 请求体
//
// PropfindProps 要求 props 非空；PropfindAllProp 时 include 中的属性放入 <include>。
func PropfindBody(mode PropfindMode, props []*Property, include []*Property) (*etree.Element, error) {
	root := xmlutil.NewDAVElement("propfind")
	switch mode {
	case PropfindPropName:
		root.AddChild(xmlutil.NewDAVElement("propname"))
	case PropfindAllProp:
		root.AddChild(xmlutil.NewDAVElement("allprop"))
		if len(include) > 0 {
			inc, err := emptyPropElements("include", include)
			if err != nil {
				return nil, err
			}
			root.AddChild(inc)
		}
	case PropfindProps:
		if len(props) == 0 {
			return nil, types.NewError(types.KindWrongType, "propfind needs at least one property")
		}
		prop, err := emptyPropElements("prop", props)
		if err != nil {
			return nil, err
		}
		root.AddChild(prop)
	default:
		return nil, types.NewError(types.KindWrongValue, "unknown propfind mode %d", int(mode))
	}
	return root, nil
}

// emptyPropElements 生成 <container><ns:a/><ns:b/></container>，只保留属性名
func emptyPropElements(container string, props []*Property) (*etree.Element, error) {
	el := xmlutil.NewDAVElement(container)
	for _, p := range props {
		if p == nil || p.Namespace() == "" {
			return nil, types.NewError(types.KindWrongType, "property must have a namespace")
		}
		el.AddChild(xmlutil.NewElement(p.Namespace(), p.LocalName()))
	}
	return el, nil
}

// ProppatchBody 生成 <propertyupdate> 请求体
//
// set 中的属性带值输出，remove 中的属性只输出名字。
func ProppatchBody(set []*Property, remove []*Property) (*etree.Element, error) {
	if len(set) == 0 && len(remove) == 0 {
		return nil, types.NewError(types.KindMissingRequiredParameter, "proppatch needs properties to set or remove")
	}

	root := xmlutil.NewDAVElement("propertyupdate")
	if len(set) > 0 {
		prop := xmlutil.NewDAVElement("prop")
		for _, p := range set {
			if p == nil || p.Namespace() == "" {
				return nil, types.NewError(types.KindWrongType, "property must have a namespace")
			}
			el, err := p.ToElement()
			if err != nil {
				return nil, err
			}
			prop.AddChild(el)
		}
		setEl := xmlutil.NewDAVElement("set")
		setEl.AddChild(prop)
		root.AddChild(setEl)
	}
	if len(remove) > 0 {
		prop, err := emptyPropElements("prop", remove)
		if err != nil {
			return nil, err
		}
		removeEl := xmlutil.NewDAVElement("remove")
		removeEl.AddChild(prop)
		root.AddChild(removeEl)
	}
	return root, nil
}

// AclBody 生成ACL方法的请求体
func AclBody(acl *Acl) (*etree.Element, error) {
	if acl == nil {
		return nil, types.NewError(types.KindMissingRequiredParameter, "acl is required")
	}
	return acl.ToElement()
}

// LockInfoBody 生成 <lockinfo> 请求体，锁类型固定为write
func LockInfoBody(scope LockScope, owner string) (*etree.Element, error) {
	if scope != LockScopeExclusive && scope != LockScopeShared {
		return nil, types.NewError(types.KindWrongValue, "lock scope must be exclusive or shared, got %q", scope)
	}

	root := xmlutil.NewDAVElement("lockinfo")
	lockscope := xmlutil.NewDAVElement("lockscope")
	lockscope.AddChild(xmlutil.NewDAVElement(string(scope)))
	root.AddChild(lockscope)

	locktype := xmlutil.NewDAVElement("locktype")
	locktype.AddChild(xmlutil.NewDAVElement("write"))
	root.AddChild(locktype)

	if owner != "" {
		root.AddChild(textElement("owner", owner))
	}
	return root, nil
}
