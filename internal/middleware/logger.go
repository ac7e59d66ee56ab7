package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/webdav-gateway/davclient/internal/client"
	"github.com/webdav-gateway/davclient/internal/types"
)

// RequestIDHeader 请求ID使用的请求头
const RequestIDHeader = "X-Request-ID"

// Middleware 包装一个传输
type Middleware func(client.Transport) client.Transport

// Chain 按顺序组合中间件，第一个中间件在最外层
func Chain(transport client.Transport, middlewares ...Middleware) client.Transport {
	for i := len(middlewares) - 1; i >= 0; i-- {
		transport = middlewares[i](transport)
	}
	return transport
}

// RequestID 为没有请求ID的请求生成一个
func RequestID() Middleware {
	return func(next client.Transport) client.Transport {
		return client.TransportFunc(func(ctx context.Context, method, url string, header http.Header, body []byte) (*client.RawResponse, error) {
			if header == nil {
				header = make(http.Header)
			}
			if header.Get(RequestIDHeader) == "" {
				header.Set(RequestIDHeader, uuid.New().String())
			}
			return next.Do(ctx, method, url, header, body)
		})
	}
}

// Logging 记录每个请求的方法、地址、状态码和耗时
func Logging(logger *logrus.Logger) Middleware {
	return func(next client.Transport) client.Transport {
		return client.TransportFunc(func(ctx context.Context, method, url string, header http.Header, body []byte) (*client.RawResponse, error) {
			startTime := time.Now()

			resp, err := next.Do(ctx, method, url, header, body)

			latency := time.Since(startTime)
			fields := logrus.Fields{
				"method":  method,
				"url":     url,
				"latency": latency,
			}
			if id := header.Get(RequestIDHeader); id != "" {
				fields["request_id"] = id
			}

			if err != nil {
				fields["error_kind"] = types.KindOf(err).String()
				logger.WithFields(fields).WithError(err).Error("request failed")
				return nil, err
			}

			fields["status"] = resp.StatusCode
			fields["bytes"] = len(resp.Body)
			entry := logger.WithFields(fields)
			switch {
			case resp.StatusCode >= 500:
				entry.Warn("request processed")
			default:
				entry.Info("request processed")
			}
			return resp, nil
		})
	}
}

// Recovery 把传输中的panic转换为 TRANSPORT 错误
func Recovery(logger *logrus.Logger) Middleware {
	return func(next client.Transport) client.Transport {
		return client.TransportFunc(func(ctx context.Context, method, url string, header http.Header, body []byte) (resp *client.RawResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"error": r,
						"url":   url,
					}).Error("panic recovered")
					resp = nil
					err = types.NewError(types.KindTransport, "%s %s: %s", method, url, fmt.Sprint(r))
				}
			}()
			return next.Do(ctx, method, url, header, body)
		})
	}
}
