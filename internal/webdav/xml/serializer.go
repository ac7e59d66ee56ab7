package xml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
)

// Serializer XML序列化器
//
// 序列化前会把树改写成前缀形式：DAV: 固定使用前缀 D，其它命名空间依次使用 ns1、ns2……
// 所有前缀声明都放在根元素上。
type Serializer struct {
	encoderOptions encoderOptions
}

// encoderOptions 编码选项
type encoderOptions struct {
	Indent      int
	Declaration bool
}

// NewSerializer 创建新的XML序列化器
func NewSerializer() *Serializer {
	return &Serializer{
		encoderOptions: encoderOptions{
			Indent:      0,
			Declaration: true,
		},
	}
}

// WithIndent 设置缩进空格数，0表示紧凑输出
func (s *Serializer) WithIndent(spaces int) *Serializer {
	s.encoderOptions.Indent = spaces
	return s
}

// WithoutDeclaration 不输出XML声明
func (s *Serializer) WithoutDeclaration() *Serializer {
	s.encoderOptions.Declaration = false
	return s
}

// Serialize 序列化元素树，原树不会被修改
func (s *Serializer) Serialize(root *etree.Element) ([]byte, error) {
	if root == nil {
		return nil, types.NewError(types.KindWrongType, "cannot serialize a nil element")
	}

	doc := etree.NewDocument()
	if s.encoderOptions.Declaration {
		doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	}
	doc.SetRoot(Prefixed(root))
	if s.encoderOptions.Indent > 0 {
		doc.Indent(s.encoderOptions.Indent)
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("序列化XML失败: %w", err)
	}
	return data, nil
}

// SerializeString 序列化为字符串
func (s *Serializer) SerializeString(root *etree.Element) (string, error) {
	data, err := s.Serialize(root)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Parse 解析XML文档并返回根元素
func Parse(data []byte) (*etree.Element, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, types.NewError(types.KindWrongXML, "XML内容不能为空")
	}

	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, types.WrapError(types.KindWrongXML, err, "XML语法错误")
	}

	root := doc.Root()
	if root == nil {
		return nil, types.NewError(types.KindWrongXML, "XML文档缺少根元素")
	}
	return root, nil
}

// ========================================
// 前缀改写
// ========================================

// prefixTable 命名空间到前缀的映射，保持首次出现顺序
type prefixTable struct {
	prefixes map[string]string
	order    []string
	next     int
}

func (t *prefixTable) prefixFor(uri string) string {
	if p, ok := t.prefixes[uri]; ok {
		return p
	}
	p := types.PrefixDAV
	if uri != types.NamespaceDAV {
		t.next++
		p = fmt.Sprintf("ns%d", t.next)
	}
	t.prefixes[uri] = p
	t.order = append(t.order, uri)
	return p
}

// Prefixed 返回一棵以前缀表示命名空间的副本，声明集中在根元素上
//
// 无命名空间的元素保持无前缀；输出中从不声明默认命名空间。
func Prefixed(root *etree.Element) *etree.Element {
	table := &prefixTable{prefixes: make(map[string]string)}
	out := prefixedCopy(root, table)

	decls := make([]etree.Attr, 0, len(table.order))
	for _, uri := range table.order {
		decls = append(decls, etree.Attr{Space: "xmlns", Key: table.prefixes[uri], Value: uri})
	}
	out.Attr = append(decls, out.Attr...)
	return out
}

func prefixedCopy(src *etree.Element, table *prefixTable) *etree.Element {
	dst := etree.NewElement(src.Tag)
	if uri := src.NamespaceURI(); uri != "" {
		dst.Space = table.prefixFor(uri)
	}
	for i := range src.Attr {
		a := &src.Attr[i]
		if isNamespaceDecl(a) {
			continue
		}
		switch a.Space {
		case "", "xml":
			dst.CreateAttr(a.FullKey(), a.Value)
		default:
			// 带前缀的属性改用表中的前缀
			if uri := a.NamespaceURI(); uri != "" {
				dst.CreateAttr(table.prefixFor(uri)+":"+a.Key, a.Value)
			}
		}
	}

	for _, child := range src.Child {
		switch t := child.(type) {
		case *etree.Element:
			dst.AddChild(prefixedCopy(t, table))
		case *etree.CharData:
			dst.AddChild(copyCharData(t))
		default:
			if leaf, ok := copyLeaf(child); ok {
				dst.AddChild(leaf)
			}
		}
	}
	return dst
}
