package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/webdav-gateway/davclient/internal/config"
	"github.com/webdav-gateway/davclient/internal/types"
)

// RawResponse 传输层返回的原始响应
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport 发送一个HTTP请求
//
// 实现只负责传输，不解释响应状态码；非2xx响应不是错误。
type Transport interface {
	Do(ctx context.Context, method, url string, header http.Header, body []byte) (*RawResponse, error)
}

// TransportFunc 函数形式的 Transport
type TransportFunc func(ctx context.Context, method, url string, header http.Header, body []byte) (*RawResponse, error)

// Do 调用函数本身
func (f TransportFunc) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*RawResponse, error) {
	return f(ctx, method, url, header, body)
}

// HTTPTransport 基于 net/http 的传输实现，支持Basic认证
type HTTPTransport struct {
	client    *http.Client
	username  string
	password  string
	userAgent string
}

// NewHTTPTransport 根据客户端配置创建传输
func NewHTTPTransport(cfg config.ClientConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		client:    &http.Client{Timeout: timeout},
		username:  cfg.Username,
		password:  cfg.Password,
		userAgent: cfg.UserAgent,
	}
}

// Do 发送请求并读取完整响应体
func (t *HTTPTransport) Do(ctx context.Context, method, url string, header http.Header, body []byte) (*RawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, types.WrapError(types.KindTransport, err, "build %s request", method)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if t.username != "" {
		req.SetBasicAuth(t.username, t.password)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, types.WrapError(types.KindTransport, err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapError(types.KindTransport, err, "read %s response body", method)
	}
	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
