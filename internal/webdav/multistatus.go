package webdav

import (
	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// Multistatus 207响应体，响应以href为键，保持插入顺序
type Multistatus struct {
	ResponseDescription string

	hrefs     []string
	responses map[string]*Response
}

// NewMultistatus 创建空的Multistatus
func NewMultistatus() *Multistatus {
	return &Multistatus{responses: make(map[string]*Response)}
}

// AddResponse 添加响应，同一href的后者替换前者但保留原来的位置
func (m *Multistatus) AddResponse(r *Response) error {
	if r == nil {
		return types.NewError(types.KindWrongType, "response is nil")
	}
	if m.responses == nil {
		m.responses = make(map[string]*Response)
	}
	if _, exists := m.responses[r.Href]; !exists {
		m.hrefs = append(m.hrefs, r.Href)
	}
	m.responses[r.Href] = r
	return nil
}

// Response 按href获取响应
func (m *Multistatus) Response(href string) (*Response, bool) {
	r, ok := m.responses[href]
	return r, ok
}

// ResponseNames 全部href，按插入顺序
func (m *Multistatus) ResponseNames() []string {
	return append([]string(nil), m.hrefs...)
}

// Responses 全部响应，按插入顺序
func (m *Multistatus) Responses() []*Response {
	out := make([]*Response, 0, len(m.hrefs))
	for _, href := range m.hrefs {
		out = append(out, m.responses[href])
	}
	return out
}

// Len 响应数量
func (m *Multistatus) Len() int {
	return len(m.hrefs)
}

// ParseMultistatus 解析 <multistatus> 元素
func ParseMultistatus(root *etree.Element, codecs *Codecs) (*Multistatus, error) {
	if !xmlutil.Is(root, types.NamespaceDAV, "multistatus") {
		return nil, types.NewError(types.KindWrongXML, "expected {DAV:}multistatus root element")
	}

	m := NewMultistatus()
	for _, child := range xmlutil.DAVChildren(root) {
		switch child.Tag {
		case "response":
			responses, err := ParseResponse(child, codecs)
			if err != nil {
				return nil, err
			}
			for _, r := range responses {
				if err := m.AddResponse(r); err != nil {
					return nil, err
				}
			}
		case "responsedescription":
			m.ResponseDescription = xmlutil.Text(child)
		}
	}
	return m, nil
}

// ParseMultistatusBytes 解析207响应体
func ParseMultistatusBytes(data []byte, codecs *Codecs) (*Multistatus, error) {
	root, err := xmlutil.Parse(data)
	if err != nil {
		return nil, err
	}
	return ParseMultistatus(root, codecs)
}

// ToElement 生成 <multistatus> 元素
func (m *Multistatus) ToElement() (*etree.Element, error) {
	el := xmlutil.NewDAVElement("multistatus")
	for _, r := range m.Responses() {
		child, err := r.ToElement()
		if err != nil {
			return nil, err
		}
		el.AddChild(child)
	}
	if m.ResponseDescription != "" {
		el.AddChild(textElement("responsedescription", m.ResponseDescription))
	}
	return el, nil
}
