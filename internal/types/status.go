package types

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// StatusLine 根据状态码生成WebDAV状态行，例如 "HTTP/1.1 423 Locked"
func StatusLine(statusCode int) string {
	switch statusCode {
	case http.StatusMultiStatus:
		return "HTTP/1.1 207 Multi-Status"
	case http.StatusUnprocessableEntity:
		return "HTTP/1.1 422 Unprocessable Entity"
	case http.StatusLocked:
		return "HTTP/1.1 423 Locked"
	case http.StatusFailedDependency:
		return "HTTP/1.1 424 Failed Dependency"
	case http.StatusInsufficientStorage:
		return "HTTP/1.1 507 Insufficient Storage"
	}
	if text := http.StatusText(statusCode); text != "" {
		return fmt.Sprintf("HTTP/1.1 %d %s", statusCode, text)
	}
	return fmt.Sprintf("HTTP/1.1 %d", statusCode)
}

// ParseStatusCode 从状态行中取出状态码
//
// 状态行格式为 "HTTP/<version> <code> <reason>"，reason可省略。
func ParseStatusCode(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, NewError(KindWrongXML, "malformed status line %q", line)
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || len(fields[1]) != 3 {
		return 0, NewError(KindWrongXML, "malformed status code in %q", line)
	}
	return code, nil
}
