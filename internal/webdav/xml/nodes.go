package xml

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
)

// NewElement 创建带命名空间的元素
//
// 命名空间以默认命名空间声明的形式放在元素自身上，因此元素在挂到任何父节点之前
// NamespaceURI() 就已经正确。
func NewElement(namespace, local string) *etree.Element {
	el := etree.NewElement(local)
	el.CreateAttr("xmlns", namespace)
	return el
}

// NewDAVElement 创建DAV:命名空间的元素
func NewDAVElement(local string) *etree.Element {
	return NewElement(types.NamespaceDAV, local)
}

// Is 判断元素是否为指定命名空间和本地名
func Is(el *etree.Element, namespace, local string) bool {
	return el != nil && el.Tag == local && el.NamespaceURI() == namespace
}

// IsDAV 判断元素是否属于DAV:命名空间
func IsDAV(el *etree.Element) bool {
	return el != nil && strings.EqualFold(el.NamespaceURI(), types.NamespaceDAV)
}

// DAVChildren 返回DAV:命名空间的子元素，按文档顺序
func DAVChildren(el *etree.Element) []*etree.Element {
	children := make([]*etree.Element, 0, len(el.Child))
	for _, child := range el.ChildElements() {
		if IsDAV(child) {
			children = append(children, child)
		}
	}
	return children
}

// FirstChildElement 返回第一个子元素，没有时返回nil
func FirstChildElement(el *etree.Element) *etree.Element {
	for _, child := range el.Child {
		if ce, ok := child.(*etree.Element); ok {
			return ce
		}
	}
	return nil
}

// Text 返回元素直接包含的文本和CDATA，去除首尾空白
func Text(el *etree.Element) string {
	var sb strings.Builder
	for _, child := range el.Child {
		if cd, ok := child.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// TextContent 按文档顺序拼接节点序列中的文本和CDATA
//
// 只要有一个节点不是文本或CDATA，第二个返回值为false。
func TextContent(nodes []etree.Token) (string, bool) {
	var sb strings.Builder
	for _, node := range nodes {
		cd, ok := node.(*etree.CharData)
		if !ok {
			return "", false
		}
		sb.WriteString(cd.Data)
	}
	return sb.String(), true
}

// ValidateNodes 校验节点序列是否为合法的子节点序列
func ValidateNodes(nodes []etree.Token) error {
	for i, node := range nodes {
		switch t := node.(type) {
		case *etree.Element:
			if t == nil || t.Tag == "" {
				return types.NewError(types.KindWrongType, "node %d is an element without a name", i)
			}
		case *etree.CharData:
			if t == nil {
				return types.NewError(types.KindWrongType, "node %d is nil", i)
			}
		case *etree.Comment, *etree.ProcInst:
		default:
			return types.NewError(types.KindWrongType, "node %d (%T) is not an XML child node", i, node)
		}
	}
	return nil
}

// Detach 深拷贝节点序列，使其脱离原文档后命名空间依然可解析
//
// 解析得到的元素通常依赖祖先上的前缀声明，直接移动到新文档会丢失命名空间。
func Detach(nodes []etree.Token) []etree.Token {
	if nodes == nil {
		return nil
	}
	out := make([]etree.Token, 0, len(nodes))
	for _, node := range nodes {
		switch t := node.(type) {
		case *etree.Element:
			out = append(out, DetachElement(t))
		case *etree.CharData:
			out = append(out, copyCharData(t))
		default:
			if leaf, ok := copyLeaf(node); ok {
				out = append(out, leaf)
			}
		}
	}
	return out
}

// DetachElement 深拷贝单个元素，参见 Detach
func DetachElement(src *etree.Element) *etree.Element {
	dst := NewElement(src.NamespaceURI(), src.Tag)
	CopyAttrs(dst, src)
	for _, child := range src.Child {
		switch t := child.(type) {
		case *etree.Element:
			dst.AddChild(DetachElement(t))
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

// ChildNodes 返回元素子节点的脱离副本
func ChildNodes(el *etree.Element) []etree.Token {
	return Detach(el.Child)
}

// CopyAttrs 把 src 的属性复制到 dst，跳过命名空间声明
//
// 带前缀的属性按 src 上的作用域解析出命名空间，并在 dst 上重新声明同一前缀，
// 因此 dst 脱离原文档后属性的命名空间不变。无法解析前缀的属性会被丢弃。
func CopyAttrs(dst, src *etree.Element) {
	for i := range src.Attr {
		a := &src.Attr[i]
		if isNamespaceDecl(a) {
			continue
		}
		if a.Space == "" || a.Space == "xml" {
			dst.CreateAttr(a.FullKey(), a.Value)
			continue
		}
		uri := a.NamespaceURI()
		if uri == "" {
			continue
		}
		dst.CreateAttr("xmlns:"+a.Space, uri)
		dst.CreateAttr(a.FullKey(), a.Value)
	}
}

func isNamespaceDecl(a *etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// copyLeaf 复制注释和处理指令
func copyLeaf(node etree.Token) (etree.Token, bool) {
	switch t := node.(type) {
	case *etree.Comment:
		return etree.NewComment(t.Data), true
	case *etree.ProcInst:
		return etree.NewProcInst(t.Target, t.Inst), true
	}
	return nil, false
}

func copyCharData(cd *etree.CharData) *etree.CharData {
	if cd.IsCData() {
		return etree.NewCData(cd.Data)
	}
	return etree.NewText(cd.Data)
}
