package types

import (
	"errors"
	"fmt"
)

// ========================================
// Error Kinds - 错误类型
// ========================================

// ErrorKind 错误种类
type ErrorKind int

const (
	// KindWrongType 值不满足结构或类型前置条件
	KindWrongType ErrorKind = iota + 1
	// KindNamespaceTaken 注册与保留或已占用的标识冲突
	KindNamespaceTaken
	// KindUnexistingProperty 读取从未填充的索引或键
	KindUnexistingProperty
	// KindWrongXML XML元素不符合WebDAV元素语法
	KindWrongXML
	// KindWrongValue 值语法正确但超出允许范围
	KindWrongValue
	// KindMissingRequiredParameter 缺少必需参数
	KindMissingRequiredParameter
	// KindTransport 传输层错误
	KindTransport
	// KindNotImplemented 尚未实现
	KindNotImplemented
)

var kindNames = map[ErrorKind]string{
	KindWrongType:                "WRONG_TYPE",
	KindNamespaceTaken:           "NAMESPACE_TAKEN",
	KindUnexistingProperty:       "UNEXISTING_PROPERTY",
	KindWrongXML:                 "WRONG_XML",
	KindWrongValue:               "WRONG_VALUE",
	KindMissingRequiredParameter: "MISSING_REQUIRED_PARAMETER",
	KindTransport:                "TRANSPORT",
	KindNotImplemented:           "NOT_IMPLEMENTED",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ========================================
// DAVError - 统一错误类型
// ========================================

// DAVError 转码层和客户端层的错误
type DAVError struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Err         error     `json:"-"`
}

func (e *DAVError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DAVError) Unwrap() error {
	return e.Err
}

// Is 按Kind比较，便于 errors.Is(err, &DAVError{Kind: KindWrongXML})
func (e *DAVError) Is(target error) bool {
	t, ok := target.(*DAVError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// NewError 创建错误
func NewError(kind ErrorKind, format string, args ...interface{}) *DAVError {
	return &DAVError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError 包装底层错误
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *DAVError {
	return &DAVError{
		Kind:        kind,
		Message:     fmt.Sprintf(format, args...),
		Description: err.Error(),
		Err:         err,
	}
}

// KindOf 返回错误链中第一个DAVError的Kind，没有则为0
func KindOf(err error) ErrorKind {
	var davErr *DAVError
	if errors.As(err, &davErr) {
		return davErr.Kind
	}
	return 0
}

// IsKind 检查错误是否为指定种类
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// ========================================
// Namespace Constants - 命名空间常量
// ========================================

const (
	// NamespaceDAV DAV命名空间
	NamespaceDAV = "DAV:"

	// PrefixDAV 序列化时使用的DAV前缀
	PrefixDAV = "D"
)

// ========================================
// Known Live Properties - 已知的活属性
// ========================================

// KnownLiveProperties 已知的活属性映射
var KnownLiveProperties = map[string]bool{
	"creationdate":       true,
	"getcontentlanguage": true,
	"getcontentlength":   true,
	"getcontenttype":     true,
	"getetag":            true,
	"getlastmodified":    true,
	"lockdiscovery":      true,
	"resourcetype":       true,
	"source":             true,
	"supportedlock":      true,
	"displayname":        true,
	// RFC 3744
	"owner":                      true,
	"group":                      true,
	"supported-privilege-set":    true,
	"current-user-privilege-set": true,
	"acl":                        true,
	"acl-restrictions":           true,
	"inherited-acl-set":          true,
	"principal-collection-set":   true,
}

// IsLiveProperty 检查属性是否为活属性
func IsLiveProperty(namespace, name string) bool {
	if namespace != NamespaceDAV {
		return false
	}
	return KnownLiveProperties[name]
}
