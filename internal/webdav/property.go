package webdav

import (
	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// Property WebDAV属性
//
// 除了值本身，还携带从 <propstat> 继承来的状态码、描述和错误条件。
type Property struct {
	payload

	status              int
	statusLine          string
	responseDescription string
	errors              []*etree.Element
}

// NewProperty 创建属性，codecs 为nil时只使用文本解码
func NewProperty(codecs *CodecRegistry, namespace, local string) *Property {
	return &Property{payload: newPayload(codecs, namespace, local, "prop")}
}

// NewPropertyFromElement 从元素创建属性，元素的子节点作为原始XML，元素自身的属性随 ToElement 原样输出
func NewPropertyFromElement(codecs *CodecRegistry, el *etree.Element) (*Property, error) {
	if el == nil {
		return nil, types.NewError(types.KindWrongType, "property element is nil")
	}
	p := NewProperty(codecs, el.NamespaceURI(), el.Tag)
	if err := p.SetRawXML(xmlutil.ChildNodes(el)); err != nil {
		return nil, err
	}
	p.setAttrs(el)
	return p, nil
}

// SetStatus 设置HTTP状态码，必须在 [200, 599] 之间
func (p *Property) SetStatus(code int) error {
	if code < 200 || code > 599 {
		return types.NewError(types.KindWrongValue, "status %d is out of range [200, 599]", code)
	}
	p.status = code
	p.statusLine = ""
	return nil
}

// SetStatusLine 从 "HTTP/1.1 404 Not Found" 形式的状态行设置状态码，原文保留用于序列化
func (p *Property) SetStatusLine(line string) error {
	code, err := types.ParseStatusCode(line)
	if err != nil {
		return err
	}
	if err := p.SetStatus(code); err != nil {
		return err
	}
	p.statusLine = line
	return nil
}

// ClearStatus 清除状态码
func (p *Property) ClearStatus() {
	p.status = 0
	p.statusLine = ""
}

// Status 返回状态码，未设置时第二个返回值为false
func (p *Property) Status() (int, bool) {
	return p.status, p.status != 0
}

// StatusLine 返回状态行，未设置状态码时为空串
func (p *Property) StatusLine() string {
	if p.status == 0 {
		return ""
	}
	if p.statusLine != "" {
		return p.statusLine
	}
	return types.StatusLine(p.status)
}

// SetResponseDescription 设置响应描述
func (p *Property) SetResponseDescription(description string) {
	p.responseDescription = description
}

// ResponseDescription 响应描述
func (p *Property) ResponseDescription() string {
	return p.responseDescription
}

// AddError 追加一个错误条件元素
func (p *Property) AddError(condition *etree.Element) error {
	if condition == nil {
		return types.NewError(types.KindWrongType, "error condition must be an element")
	}
	p.errors = append(p.errors, xmlutil.DetachElement(condition))
	return nil
}

// Errors 错误条件元素，按添加顺序
func (p *Property) Errors() []*etree.Element {
	return append([]*etree.Element(nil), p.errors...)
}

// ToElement 生成 <ns:local>...</ns:local>
func (p *Property) ToElement() (*etree.Element, error) {
	return p.element()
}
