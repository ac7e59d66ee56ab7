package webdav

import (
	"sync"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
)

// DecodeFunc 把原始XML子节点转换为类型化的值
type DecodeFunc func(nodes []etree.Token) (any, error)

// EncodeFunc 把值转换为XML子节点
//
// doc 是一个新建的容器元素（文档上下文），实现可以把生成的节点挂在它下面再返回 doc.Child。
type EncodeFunc func(value any, doc *etree.Element) ([]etree.Token, error)

// Codec 一对转换函数，两者都可以为空
type Codec struct {
	Decode DecodeFunc
	Encode EncodeFunc
}

type codecKey struct {
	namespace string
	local     string
}

// CodecRegistry 以 (namespace, local) 为键的编解码表
//
// 注册通常只在初始化阶段进行；读多写少，用读写锁保护。Freeze 之后不再接受注册。
type CodecRegistry struct {
	mu     sync.RWMutex
	codecs map[codecKey]Codec
	frozen bool
}

// NewCodecRegistry 创建空的编解码表
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{
		codecs: make(map[codecKey]Codec),
	}
}

// Register 注册编解码函数，同一个键重复注册时后者覆盖前者
func (r *CodecRegistry) Register(namespace, local string, decode DecodeFunc, encode EncodeFunc) error {
	if local == "" {
		return types.NewError(types.KindWrongType, "codec local name must be a non-empty string")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return types.NewError(types.KindNamespaceTaken, "codec registry is frozen, cannot register {%s}%s", namespace, local)
	}
	r.codecs[codecKey{namespace: namespace, local: local}] = Codec{Decode: decode, Encode: encode}
	return nil
}

// Lookup 查找编解码函数，未注册时第二个返回值为false
func (r *CodecRegistry) Lookup(namespace, local string) (Codec, bool) {
	if r == nil {
		return Codec{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	codec, ok := r.codecs[codecKey{namespace: namespace, local: local}]
	return codec, ok
}

// Freeze 冻结编解码表
func (r *CodecRegistry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Len 已注册的条目数
func (r *CodecRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codecs)
}

// ========================================
// Codecs - 属性与权限两张表
// ========================================

// Codecs 属性编解码表和权限编解码表
//
// 权限位于 <privilege> 之下，语义上是能力标识而不是资源属性，所以使用独立的表。
type Codecs struct {
	Properties *CodecRegistry
	Privileges *CodecRegistry
}

// NewEmptyCodecs 创建两张空表
func NewEmptyCodecs() *Codecs {
	return &Codecs{
		Properties: NewCodecRegistry(),
		Privileges: NewCodecRegistry(),
	}
}

// NewCodecs 创建已安装默认编解码和ACL编解码的表
func NewCodecs() *Codecs {
	c := NewEmptyCodecs()
	// 新建的表不会被冻结，注册不会失败
	_ = RegisterDefaultCodecs(c.Properties)
	_ = RegisterACLCodecs(c)
	return c
}

// NewProperty 使用本表创建属性
func (c *Codecs) NewProperty(namespace, local string) *Property {
	return NewProperty(c.Properties, namespace, local)
}

// NewPrivilege 使用本表创建权限
func (c *Codecs) NewPrivilege(namespace, local string) *Privilege {
	return NewPrivilege(c.Privileges, namespace, local)
}

func (c *Codecs) properties() *CodecRegistry {
	if c == nil {
		return nil
	}
	return c.Properties
}

func (c *Codecs) privileges() *CodecRegistry {
	if c == nil {
		return nil
	}
	return c.Privileges
}
