package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDAVError_KindMatching(t *testing.T) {
	err := NewError(KindWrongValue, "status %d out of range", 600)
	wrapped := fmt.Errorf("set status: %w", err)

	assert.Equal(t, KindWrongValue, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindWrongValue))
	assert.False(t, IsKind(wrapped, KindWrongType))
	assert.True(t, errors.Is(wrapped, &DAVError{Kind: KindWrongValue}))
	assert.Equal(t, "WRONG_VALUE: status 600 out of range", err.Error())
	assert.False(t, IsKind(nil, KindWrongValue))
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}

func TestWrapError_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(KindTransport, cause, "PROPFIND %s", "/a")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "TRANSPORT", err.Kind.String())
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected string
	}{
		{name: "成功", code: 200, expected: "HTTP/1.1 200 OK"},
		{name: "未找到", code: 404, expected: "HTTP/1.1 404 Not Found"},
		{name: "锁定", code: 423, expected: "HTTP/1.1 423 Locked"},
		{name: "依赖失败", code: 424, expected: "HTTP/1.1 424 Failed Dependency"},
		{name: "未知状态码", code: 599, expected: "HTTP/1.1 599"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusLine(tt.code))
		})
	}
}

func TestParseStatusCode(t *testing.T) {
	code, err := ParseStatusCode("HTTP/1.1 423 Locked")
	require.NoError(t, err)
	assert.Equal(t, 423, code)

	code, err = ParseStatusCode("  HTTP/1.0 200  ")
	require.NoError(t, err)
	assert.Equal(t, 200, code)

	for _, bad := range []string{"", "200 OK", "HTTP/1.1 abc Nope", "HTTP/1.1 2000 Wide"} {
		_, err := ParseStatusCode(bad)
		assert.True(t, IsKind(err, KindWrongXML), "input %q", bad)
	}
}

func TestIsLiveProperty(t *testing.T) {
	assert.True(t, IsLiveProperty(NamespaceDAV, "getetag"))
	assert.True(t, IsLiveProperty(NamespaceDAV, "acl"))
	assert.False(t, IsLiveProperty("http://example.com/ns", "getetag"))
	assert.False(t, IsLiveProperty(NamespaceDAV, "author"))
}
