package xml

import (
	"strings"

	"github.com/webdav-gateway/davclient/internal/types"
)

// NamespaceResolver 命名空间解析器，把命令行输入的前缀名解析为 (namespace, local)
type NamespaceResolver struct {
	mappings map[string]string
}

// NewNamespaceResolver 创建新的命名空间解析器
func NewNamespaceResolver() *NamespaceResolver {
	return &NamespaceResolver{
		mappings: map[string]string{
			"D":   types.NamespaceDAV,
			"DAV": types.NamespaceDAV,
		},
	}
}

// AddMapping 添加命名空间映射
func (nr *NamespaceResolver) AddMapping(prefix, url string) {
	nr.mappings[prefix] = url
}

// Resolve 解析命名空间URL
func (nr *NamespaceResolver) Resolve(prefix string) (string, bool) {
	url, exists := nr.mappings[prefix]
	return url, exists
}

// ResolveName 解析属性名
//
// 支持三种写法：Clark记法 "{DAV:}getetag"、前缀写法 "D:getetag"，以及不带前缀的
// "getetag"（视为DAV:）。
func (nr *NamespaceResolver) ResolveName(name string) (namespace, local string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", types.NewError(types.KindWrongValue, "属性名不能为空")
	}

	if strings.HasPrefix(name, "{") {
		end := strings.Index(name, "}")
		if end < 0 || end == len(name)-1 {
			return "", "", types.NewError(types.KindWrongValue, "malformed property name %q", name)
		}
		return name[1:end], name[end+1:], nil
	}

	if idx := strings.LastIndex(name, ":"); idx > 0 {
		prefix, local := name[:idx], name[idx+1:]
		url, ok := nr.Resolve(prefix)
		if !ok {
			return "", "", types.NewError(types.KindWrongValue, "unknown namespace prefix %q", prefix)
		}
		if local == "" {
			return "", "", types.NewError(types.KindWrongValue, "malformed property name %q", name)
		}
		return url, local, nil
	}

	return types.NamespaceDAV, name, nil
}
