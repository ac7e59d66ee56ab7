package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/webdav-gateway/davclient/internal/types"
	"github.com/webdav-gateway/davclient/internal/webdav"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

const xmlContentType = `application/xml; charset="utf-8"`

// OverwriteMode COPY/MOVE 目标已存在时的处理方式
type OverwriteMode int

const (
	// OverwriteSilent 不发送Overwrite头，由服务器按默认行为覆盖
	OverwriteSilent OverwriteMode = iota
	OverwriteFail
	OverwriteTruncate
)

// Result 一次请求的结果
//
// 207响应的响应体会被解析到 Multistatus，其余情况 Multistatus 为nil。
type Result struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	Multistatus *webdav.Multistatus
}

// Client WebDAV客户端
type Client struct {
	baseURL    *url.URL
	transport  Transport
	codecs     *webdav.Codecs
	serializer *xmlutil.Serializer
	header     http.Header
	logger     *logrus.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithCodecs 使用指定的编解码表
func WithCodecs(codecs *webdav.Codecs) Option {
	return func(c *Client) {
		c.codecs = codecs
	}
}

// WithHeader 为每个请求附加请求头
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithLogger 设置日志
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New 创建客户端，baseURL 必须是绝对的 http/https 地址
func New(baseURL string, transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, types.NewError(types.KindMissingRequiredParameter, "transport is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, types.WrapError(types.KindWrongValue, err, "invalid base url %q", baseURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, types.NewError(types.KindWrongValue, "base url must be an absolute http or https url, got %q", baseURL)
	}

	c := &Client{
		baseURL:    u,
		transport:  transport,
		serializer: NewRequestSerializer(),
		header:     make(http.Header),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.codecs == nil {
		c.codecs = webdav.NewCodecs()
	}
	return c, nil
}

// NewRequestSerializer 请求体使用的序列化器
func NewRequestSerializer() *xmlutil.Serializer {
	return xmlutil.NewSerializer()
}

// BaseURL 由主机名、协议和端口拼出基础地址，默认端口不写入地址
//
// port 为0时使用协议的默认端口。
func BaseURL(host string, useHTTPS bool, port int) string {
	scheme := "http"
	defaultPort := 80
	if useHTTPS {
		scheme = "https"
		defaultPort = 443
	}
	if port == 0 || port == defaultPort {
		return scheme + "://" + host
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// Codecs 客户端使用的编解码表
func (c *Client) Codecs() *webdav.Codecs {
	return c.codecs
}

// URL 把服务器上的路径转换为完整地址
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL.String() + path
}

// destination 以 / 开头的目标视为同一服务器上的路径，否则认为已是完整地址
func (c *Client) destination(dest string) string {
	if strings.HasPrefix(dest, "/") {
		return c.URL(dest)
	}
	return dest
}

// ===== 通用请求 =====

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body []byte) (*Result, error) {
	h := make(http.Header)
	for key, values := range c.header {
		h[key] = append([]string(nil), values...)
	}
	for key, values := range header {
		h[key] = append([]string(nil), values...)
	}

	raw, err := c.transport.Do(ctx, method, c.URL(path), h, body)
	if err != nil {
		return nil, err
	}

	result := &Result{
		StatusCode: raw.StatusCode,
		Header:     raw.Header,
		Body:       raw.Body,
	}
	if raw.StatusCode == http.StatusMultiStatus {
		ms, err := webdav.ParseMultistatusBytes(raw.Body, c.codecs)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		result.Multistatus = ms
		c.logger.WithFields(logrus.Fields{
			"method":    method,
			"path":      path,
			"responses": ms.Len(),
		}).Debug("multistatus parsed")
	}
	return result, nil
}

func (c *Client) doXML(ctx context.Context, method, path string, header http.Header, body *etree.Element) (*Result, error) {
	data, err := c.serializer.Serialize(body)
	if err != nil {
		return nil, err
	}
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Type", xmlContentType)
	return c.do(ctx, method, path, header, data)
}

func depthHeader(depth int) (string, error) {
	switch depth {
	case 0, 1, webdav.DepthInfinity:
		return webdav.FormatDepth(depth), nil
	}
	return "", types.NewError(types.KindWrongValue, "depth should be 0, 1 or infinity, got %d", depth)
}

// ===== PROPFIND / PROPPATCH =====

// PropfindOptions PROPFIND参数
//
// Depth 默认为0；并非所有服务器都支持 infinity。
type PropfindOptions struct {
	Depth   int
	Mode    webdav.PropfindMode
	Props   []*webdav.Property
	Include []*webdav.Property
}

// Propfind 执行PROPFIND
func (c *Client) Propfind(ctx context.Context, path string, opts PropfindOptions) (*Result, error) {
	depth, err := depthHeader(opts.Depth)
	if err != nil {
		return nil, err
	}
	body, err := webdav.PropfindBody(opts.Mode, opts.Props, opts.Include)
	if err != nil {
		return nil, err
	}
	header := make(http.Header)
	header.Set("Depth", depth)
	return c.doXML(ctx, "PROPFIND", path, header, body)
}

// Proppatch 执行PROPPATCH，set 和 remove 至少一个非空
func (c *Client) Proppatch(ctx context.Context, path string, set, remove []*webdav.Property) (*Result, error) {
	body, err := webdav.ProppatchBody(set, remove)
	if err != nil {
		return nil, err
	}
	return c.doXML(ctx, "PROPPATCH", path, nil, body)
}

// ===== 资源操作 =====

// Mkcol 创建集合
func (c *Client) Mkcol(ctx context.Context, path string) (*Result, error) {
	return c.do(ctx, "MKCOL", path, nil, nil)
}

// Delete 删除资源
func (c *Client) Delete(ctx context.Context, path string) (*Result, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Get 获取资源内容
func (c *Client) Get(ctx context.Context, path string) (*Result, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// Head 获取资源头部
func (c *Client) Head(ctx context.Context, path string) (*Result, error) {
	return c.do(ctx, http.MethodHead, path, nil, nil)
}

// Put 上传资源内容
func (c *Client) Put(ctx context.Context, path string, body []byte, contentType string) (*Result, error) {
	return c.do(ctx, http.MethodPut, path, contentTypeHeader(contentType), body)
}

// Post 发送POST请求
func (c *Client) Post(ctx context.Context, path string, body []byte, contentType string) (*Result, error) {
	return c.do(ctx, http.MethodPost, path, contentTypeHeader(contentType), body)
}

func contentTypeHeader(contentType string) http.Header {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return header
}

// CopyOptions COPY参数，Depth 为空时不发送Depth头
type CopyOptions struct {
	Overwrite OverwriteMode
	Depth     string
}

// Copy 复制资源，destination 以 / 开头时视为同一服务器上的路径
func (c *Client) Copy(ctx context.Context, path, destination string, opts CopyOptions) (*Result, error) {
	if destination == "" {
		return nil, types.NewError(types.KindMissingRequiredParameter, "COPY requires a destination")
	}
	header := make(http.Header)
	header.Set("Destination", c.destination(destination))
	switch opts.Depth {
	case "":
	case "0", "infinity":
		header.Set("Depth", opts.Depth)
	default:
		return nil, types.NewError(types.KindWrongValue, "COPY depth should be 0 or infinity, got %q", opts.Depth)
	}
	if err := setOverwrite(header, opts.Overwrite); err != nil {
		return nil, err
	}
	return c.do(ctx, "COPY", path, header, nil)
}

// Move 移动资源
func (c *Client) Move(ctx context.Context, path, destination string, overwrite OverwriteMode) (*Result, error) {
	if destination == "" {
		return nil, types.NewError(types.KindMissingRequiredParameter, "MOVE requires a destination")
	}
	header := make(http.Header)
	header.Set("Destination", c.destination(destination))
	if err := setOverwrite(header, overwrite); err != nil {
		return nil, err
	}
	return c.do(ctx, "MOVE", path, header, nil)
}

func setOverwrite(header http.Header, mode OverwriteMode) error {
	switch mode {
	case OverwriteSilent:
	case OverwriteFail:
		header.Set("Overwrite", "F")
	case OverwriteTruncate:
		header.Set("Overwrite", "T")
	default:
		return types.NewError(types.KindWrongValue, "unknown overwrite mode %d", int(mode))
	}
	return nil
}

// ===== LOCK / UNLOCK =====

// LockOptions LOCK参数
type LockOptions struct {
	Scope   webdav.LockScope
	Owner   string
	Timeout time.Duration
	// Depth 只能是0或 webdav.DepthInfinity
	Depth int
}

// LockResult LOCK的结果
type LockResult struct {
	*Result
	Token string
	Locks []webdav.ActiveLock
}

// Lock 对资源加写锁
//
// 成功时令牌优先取 Lock-Token 响应头，没有时取响应体中第一个 activelock 的令牌。
func (c *Client) Lock(ctx context.Context, path string, opts LockOptions) (*LockResult, error) {
	if opts.Scope == "" {
		opts.Scope = webdav.LockScopeExclusive
	}
	if opts.Depth != 0 && opts.Depth != webdav.DepthInfinity {
		return nil, types.NewError(types.KindWrongValue, "LOCK depth should be 0 or infinity, got %d", opts.Depth)
	}
	body, err := webdav.LockInfoBody(opts.Scope, opts.Owner)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set("Depth", webdav.FormatDepth(opts.Depth))
	header.Set("Timeout", webdav.FormatTimeout(opts.Timeout))

	result, err := c.doXML(ctx, "LOCK", path, header, body)
	if err != nil {
		return nil, err
	}

	lr := &LockResult{Result: result}
	if result.StatusCode != http.StatusOK && result.StatusCode != http.StatusCreated {
		return lr, nil
	}
	if len(result.Body) > 0 {
		root, err := xmlutil.Parse(result.Body)
		if err != nil {
			return nil, err
		}
		locks, err := webdav.ParseActiveLocks(root)
		if err != nil {
			return nil, err
		}
		lr.Locks = locks
	}
	lr.Token = webdav.ParseLockToken(result.Header.Get("Lock-Token"))
	if lr.Token == "" && len(lr.Locks) > 0 {
		lr.Token = lr.Locks[0].Token
	}
	return lr, nil
}

// Unlock 释放锁
func (c *Client) Unlock(ctx context.Context, path, token string) (*Result, error) {
	if token == "" {
		return nil, types.NewError(types.KindMissingRequiredParameter, "UNLOCK requires a lock token")
	}
	header := make(http.Header)
	header.Set("Lock-Token", webdav.FormatLockToken(token))
	return c.do(ctx, "UNLOCK", path, header, nil)
}

// ===== ACL / REPORT =====

// Acl 设置资源的访问控制列表
func (c *Client) Acl(ctx context.Context, path string, acl *webdav.Acl) (*Result, error) {
	body, err := webdav.AclBody(acl)
	if err != nil {
		return nil, err
	}
	return c.doXML(ctx, "ACL", path, nil, body)
}

// Report 发送REPORT请求，body 为报告请求的根元素
func (c *Client) Report(ctx context.Context, path string, body *etree.Element) (*Result, error) {
	if body == nil {
		return nil, types.NewError(types.KindMissingRequiredParameter, "REPORT requires a body")
	}
	return c.doXML(ctx, "REPORT", path, nil, body)
}
