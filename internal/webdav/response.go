package webdav

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// Response multistatus中的一个 <response>
//
// 空字符串表示对应元素不存在。Status 只在没有属性（即没有 <propstat>）时使用。
type Response struct {
	Href                string
	Status              string
	Error               []*etree.Element
	ResponseDescription string
	Location            string

	properties keyedIndex[*Property]
}

// NewResponse 创建指定href的响应
func NewResponse(href string) *Response {
	return &Response{Href: href}
}

// AddProperty 添加属性，同名属性会被替换
func (r *Response) AddProperty(p *Property) error {
	if p == nil {
		return types.NewError(types.KindWrongType, "property is nil")
	}
	if p.Namespace() == "" {
		return types.NewError(types.KindWrongType, "property %q has no namespace", p.LocalName())
	}
	r.properties.put(p.Namespace(), p.LocalName(), p)
	return nil
}

// Property 按命名空间和本地名获取属性
func (r *Response) Property(namespace, local string) (*Property, bool) {
	return r.properties.get(namespace, local)
}

// NamespaceNames 出现过的命名空间，按首次添加顺序
func (r *Response) NamespaceNames() []string {
	return r.properties.namespaceNames()
}

// PropertyNames 指定命名空间下的属性本地名，未知命名空间返回空列表
func (r *Response) PropertyNames(namespace string) []string {
	return r.properties.names(namespace)
}

// Properties 全部属性
func (r *Response) Properties() []*Property {
	return r.properties.all()
}

// ===== 解析 =====

// pendingPropstat 一个 <propstat> 的解析结果
type pendingPropstat struct {
	props       []*etree.Element
	status      string
	description string
	errors      []*etree.Element
}

// ParseResponse 解析 <response> 元素
//
// 只有 <status> 的响应允许包含多个 <href>，每个href生成一个共享其余字段的响应。
// 多个href同时又有 <propstat> 时无法判断属性归属，返回 WRONG_XML。
func ParseResponse(el *etree.Element, codecs *Codecs) ([]*Response, error) {
	if !xmlutil.Is(el, types.NamespaceDAV, "response") {
		return nil, types.NewError(types.KindWrongXML, "expected {DAV:}response element")
	}

	var (
		hrefs     []string
		propstats []pendingPropstat
		template  Response
	)

	for _, child := range xmlutil.DAVChildren(el) {
		switch child.Tag {
		case "href":
			hrefs = append(hrefs, xmlutil.Text(child))
		case "status":
			template.Status = xmlutil.Text(child)
		case "error":
			template.Error = detachChildElements(child)
		case "responsedescription":
			template.ResponseDescription = xmlutil.Text(child)
		case "location":
			href := davChild(child, "href")
			if href == nil {
				return nil, types.NewError(types.KindWrongXML, "location without href")
			}
			template.Location = xmlutil.Text(href)
		case "propstat":
			propstats = append(propstats, parsePropstat(child))
		}
	}

	if len(hrefs) == 0 {
		return nil, types.NewError(types.KindWrongXML, "response without href")
	}
	if len(hrefs) > 1 && len(propstats) > 0 {
		return nil, types.NewError(types.KindWrongXML, "ambiguous response grouping: %d hrefs with propstat", len(hrefs))
	}

	if len(hrefs) > 1 {
		responses := make([]*Response, 0, len(hrefs))
		for _, href := range hrefs {
			r := &Response{
				Href:                href,
				Status:              template.Status,
				Error:               cloneElements(template.Error),
				ResponseDescription: template.ResponseDescription,
				Location:            template.Location,
			}
			responses = append(responses, r)
		}
		return responses, nil
	}

	r := &Response{
		Href:                hrefs[0],
		Status:              template.Status,
		Error:               template.Error,
		ResponseDescription: template.ResponseDescription,
		Location:            template.Location,
	}
	for _, ps := range propstats {
		for _, propEl := range ps.props {
			p, err := NewPropertyFromElement(codecs.properties(), propEl)
			if err != nil {
				return nil, err
			}
			if ps.status != "" {
				if err := p.SetStatusLine(ps.status); err != nil {
					return nil, types.WrapError(types.KindWrongXML, err, "propstat of %s", r.Href)
				}
			}
			p.SetResponseDescription(ps.description)
			for _, cond := range ps.errors {
				if err := p.AddError(cond); err != nil {
					return nil, err
				}
			}
			if err := r.AddProperty(p); err != nil {
				return nil, err
			}
		}
	}
	return []*Response{r}, nil
}

func parsePropstat(el *etree.Element) pendingPropstat {
	var ps pendingPropstat
	for _, child := range xmlutil.DAVChildren(el) {
		switch child.Tag {
		case "prop":
			ps.props = append(ps.props, child.ChildElements()...)
		case "status":
			ps.status = xmlutil.Text(child)
		case "error":
			ps.errors = child.ChildElements()
		case "responsedescription":
			ps.description = xmlutil.Text(child)
		}
	}
	return ps
}

// davChild 返回第一个指定本地名的DAV:子元素
func davChild(el *etree.Element, local string) *etree.Element {
	for _, child := range xmlutil.DAVChildren(el) {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

func detachChildElements(el *etree.Element) []*etree.Element {
	children := el.ChildElements()
	out := make([]*etree.Element, 0, len(children))
	for _, child := range children {
		out = append(out, xmlutil.DetachElement(child))
	}
	return out
}

func cloneElements(elements []*etree.Element) []*etree.Element {
	if elements == nil {
		return nil
	}
	out := make([]*etree.Element, 0, len(elements))
	for _, el := range elements {
		out = append(out, xmlutil.DetachElement(el))
	}
	return out
}

// ===== 序列化 =====

// ToElement 生成 <response> 元素
//
// 属性按 (状态行, 描述) 分组为 <propstat>，分组顺序为首次出现的顺序。
func (r *Response) ToElement() (*etree.Element, error) {
	if r.Href == "" {
		return nil, types.NewError(types.KindMissingRequiredParameter, "response href is required")
	}

	el := xmlutil.NewDAVElement("response")
	el.AddChild(textElement("href", r.Href))

	props := r.Properties()
	if len(props) > 0 {
		propstats, err := groupPropstats(props)
		if err != nil {
			return nil, err
		}
		for _, ps := range propstats {
			el.AddChild(ps)
		}
	} else if r.Status != "" {
		el.AddChild(textElement("status", r.Status))
	}

	if len(r.Error) > 0 {
		el.AddChild(errorElement(r.Error))
	}
	if r.ResponseDescription != "" {
		el.AddChild(textElement("responsedescription", r.ResponseDescription))
	}
	if r.Location != "" {
		location := xmlutil.NewDAVElement("location")
		location.AddChild(textElement("href", r.Location))
		el.AddChild(location)
	}
	return el, nil
}

// propstatKey 状态行、描述和错误条件都相同的属性放进同一个 <propstat>
type propstatKey struct {
	status      string
	description string
	errors      string
}

// conditionsKey 错误条件的规范化序列化形式
func conditionsKey(conditions []*etree.Element) (string, error) {
	if len(conditions) == 0 {
		return "", nil
	}
	s := xmlutil.NewSerializer().WithoutDeclaration()
	var sb strings.Builder
	for _, cond := range conditions {
		data, err := s.Serialize(cond)
		if err != nil {
			return "", err
		}
		sb.Write(data)
	}
	return sb.String(), nil
}

func groupPropstats(props []*Property) ([]*etree.Element, error) {
	var (
		order  []propstatKey
		groups = make(map[propstatKey]*etree.Element)
		errs   = make(map[propstatKey][]*etree.Element)
	)
	for _, p := range props {
		conditions, err := conditionsKey(p.errors)
		if err != nil {
			return nil, err
		}
		key := propstatKey{status: p.StatusLine(), description: p.ResponseDescription(), errors: conditions}
		prop, ok := groups[key]
		if !ok {
			prop = xmlutil.NewDAVElement("prop")
			groups[key] = prop
			errs[key] = p.Errors()
			order = append(order, key)
		}
		propEl, err := p.ToElement()
		if err != nil {
			return nil, err
		}
		prop.AddChild(propEl)
	}

	out := make([]*etree.Element, 0, len(order))
	for _, key := range order {
		ps := xmlutil.NewDAVElement("propstat")
		ps.AddChild(groups[key])
		if key.status != "" {
			ps.AddChild(textElement("status", key.status))
		}
		if len(errs[key]) > 0 {
			ps.AddChild(errorElement(errs[key]))
		}
		if key.description != "" {
			ps.AddChild(textElement("responsedescription", key.description))
		}
		out = append(out, ps)
	}
	return out, nil
}

func textElement(local, text string) *etree.Element {
	el := xmlutil.NewDAVElement(local)
	el.SetText(text)
	return el
}

func errorElement(conditions []*etree.Element) *etree.Element {
	el := xmlutil.NewDAVElement("error")
	for _, cond := range conditions {
		el.AddChild(xmlutil.DetachElement(cond))
	}
	return el
}
