package webdav

import (
	"fmt"

	"github.com/beevik/etree"

	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// UndefinedValue 见 Undefined
type UndefinedValue struct{}

func (UndefinedValue) String() string { return "undefined" }

// Undefined 表示存在结构化内容，但没有编解码函数无法解释
//
// 与nil不同：nil表示没有内容。
var Undefined = UndefinedValue{}

// side 当前以哪一侧为准
type side int

const (
	sideNone side = iota
	sideRaw
	sideDecoded
)

// payload 原始XML与解码值的双视图
//
// 任一时刻只有一侧是权威的，另一侧在第一次读取时通过编解码表推导并缓存；
// 写入任一侧都会使缓存失效。
type payload struct {
	codecs    *CodecRegistry
	namespace string
	local     string
	container string

	// attrs 承载外层元素自身的属性，没有时为nil
	attrs *etree.Element

	side    side
	raw     []etree.Token
	value   any
	derived bool
	err     error
}

func newPayload(codecs *CodecRegistry, namespace, local, container string) payload {
	return payload{
		codecs:    codecs,
		namespace: namespace,
		local:     local,
		container: container,
	}
}

// Namespace 命名空间
func (p *payload) Namespace() string {
	return p.namespace
}

// LocalName 本地名
func (p *payload) LocalName() string {
	return p.local
}

// SetRawXML 设置原始XML子节点，nil表示没有内容
//
// 节点会被深拷贝，之后修改传入的节点不会影响本对象。
func (p *payload) SetRawXML(nodes []etree.Token) error {
	if err := xmlutil.ValidateNodes(nodes); err != nil {
		return err
	}
	p.derived = false
	p.err = nil
	p.value = nil
	if nodes == nil {
		p.side = sideNone
		p.raw = nil
		return nil
	}
	p.side = sideRaw
	p.raw = xmlutil.Detach(nodes)
	return nil
}

// RawXML 返回原始XML子节点；当权威侧是解码值时通过编码函数生成
func (p *payload) RawXML() ([]etree.Token, error) {
	switch p.side {
	case sideRaw:
		return p.raw, nil
	case sideDecoded:
		if !p.derived {
			p.raw, p.err = p.encode(p.value)
			p.derived = true
		}
		return p.raw, p.err
	default:
		return nil, nil
	}
}

// SetValue 设置解码值，nil表示没有内容
func (p *payload) SetValue(value any) {
	p.derived = false
	p.err = nil
	p.raw = nil
	if value == nil {
		p.side = sideNone
		p.value = nil
		return
	}
	p.side = sideDecoded
	p.value = value
}

// Value 返回解码值；当权威侧是原始XML时通过解码函数生成
func (p *payload) Value() (any, error) {
	switch p.side {
	case sideDecoded:
		return p.value, nil
	case sideRaw:
		if !p.derived {
			p.value, p.err = p.decode(p.raw)
			p.derived = true
		}
		return p.value, p.err
	default:
		return nil, nil
	}
}

// String 返回值的字符串形式，无法得到值时为空串
func (p *payload) String() string {
	value, err := p.Value()
	if err != nil || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func (p *payload) decode(nodes []etree.Token) (any, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	if codec, ok := p.codecs.Lookup(p.namespace, p.local); ok && codec.Decode != nil {
		value, err := codec.Decode(nodes)
		if err != nil {
			return nil, fmt.Errorf("decode {%s}%s: %w", p.namespace, p.local, err)
		}
		return value, nil
	}
	text, ok := xmlutil.TextContent(nodes)
	if !ok {
		return Undefined, nil
	}
	return text, nil
}

func (p *payload) encode(value any) ([]etree.Token, error) {
	doc := xmlutil.NewDAVElement(p.container)
	if codec, ok := p.codecs.Lookup(p.namespace, p.local); ok && codec.Encode != nil {
		nodes, err := codec.Encode(value, doc)
		if err != nil {
			return nil, fmt.Errorf("encode {%s}%s: %w", p.namespace, p.local, err)
		}
		if err := xmlutil.ValidateNodes(nodes); err != nil {
			return nil, err
		}
		return xmlutil.Detach(nodes), nil
	}
	if value == nil || value == Undefined {
		return []etree.Token{}, nil
	}
	text, ok := value.(string)
	if !ok {
		text = fmt.Sprint(value)
	}
	return []etree.Token{etree.NewCData(text)}, nil
}

// setAttrs 记录外层元素的属性，命名空间声明除外
func (p *payload) setAttrs(src *etree.Element) {
	holder := xmlutil.NewElement(p.namespace, p.local)
	before := len(holder.Attr)
	xmlutil.CopyAttrs(holder, src)
	if len(holder.Attr) == before {
		p.attrs = nil
		return
	}
	p.attrs = holder
}

// Attr 返回外层元素上的属性值，namespace 为空表示无命名空间的属性
func (p *payload) Attr(namespace, local string) (string, bool) {
	if p.attrs == nil {
		return "", false
	}
	for i := range p.attrs.Attr {
		a := &p.attrs.Attr[i]
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") || a.Key != local {
			continue
		}
		uri := a.NamespaceURI()
		if a.Space == "xml" {
			uri = xmlNamespace
		}
		if uri == namespace {
			return a.Value, true
		}
	}
	return "", false
}

// element 生成 <ns:local>原始XML</ns:local>
func (p *payload) element() (*etree.Element, error) {
	el := xmlutil.NewElement(p.namespace, p.local)
	if p.attrs != nil {
		xmlutil.CopyAttrs(el, p.attrs)
	}
	nodes, err := p.RawXML()
	if err != nil {
		return nil, err
	}
	for _, node := range xmlutil.Detach(nodes) {
		el.AddChild(node)
	}
	return el, nil
}
