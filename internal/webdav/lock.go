package webdav

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// LockScope 锁范围
type LockScope string

const (
	LockScopeExclusive LockScope = "exclusive"
	LockScopeShared    LockScope = "shared"
)

// DepthInfinity Depth: infinity
const DepthInfinity = -1

// ActiveLock LOCK响应中 <activelock> 的内容
type ActiveLock struct {
	Scope    LockScope
	Depth    int
	Owner    string
	Timeout  time.Duration
	Token    string
	LockRoot string
}

// ParseActiveLocks 从 <prop><lockdiscovery> 中取出全部 <activelock>
func ParseActiveLocks(root *etree.Element) ([]ActiveLock, error) {
	if !xmlutil.Is(root, types.NamespaceDAV, "prop") {
		return nil, types.NewError(types.KindWrongXML, "expected {DAV:}prop root element")
	}
	discovery := davChild(root, "lockdiscovery")
	if discovery == nil {
		return nil, types.NewError(types.KindWrongXML, "response has no lockdiscovery")
	}

	var locks []ActiveLock
	for _, el := range xmlutil.DAVChildren(discovery) {
		if el.Tag != "activelock" {
			continue
		}
		lock, err := parseActiveLock(el)
		if err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, nil
}

func parseActiveLock(el *etree.Element) (ActiveLock, error) {
	var lock ActiveLock
	for _, child := range xmlutil.DAVChildren(el) {
		switch child.Tag {
		case "lockscope":
			if davChild(child, "shared") != nil {
				lock.Scope = LockScopeShared
			} else {
				lock.Scope = LockScopeExclusive
			}
		case "depth":
			depth, err := ParseDepth(xmlutil.Text(child))
			if err != nil {
				return lock, types.WrapError(types.KindWrongXML, err, "activelock depth")
			}
			lock.Depth = depth
		case "owner":
			if href := davChild(child, "href"); href != nil {
				lock.Owner = xmlutil.Text(href)
			} else {
				lock.Owner = xmlutil.Text(child)
			}
		case "timeout":
			lock.Timeout = ParseTimeout(xmlutil.Text(child))
		case "locktoken":
			if href := davChild(child, "href"); href != nil {
				lock.Token = xmlutil.Text(href)
			}
		case "lockroot":
			if href := davChild(child, "href"); href != nil {
				lock.LockRoot = xmlutil.Text(href)
			}
		}
	}
	if lock.Token == "" {
		return lock, types.NewError(types.KindWrongXML, "activelock without locktoken")
	}
	return lock, nil
}

// ParseDepth 解析Depth值："0"、"1" 或 "infinity"
func ParseDepth(value string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0":
		return 0, nil
	case "1":
		return 1, nil
	case "infinity":
		return DepthInfinity, nil
	}
	return 0, types.NewError(types.KindWrongValue, "depth must be 0, 1 or infinity, got %q", value)
}

// FormatDepth 格式化Depth值
func FormatDepth(depth int) string {
	if depth == DepthInfinity {
		return "infinity"
	}
	return strconv.Itoa(depth)
}

// ParseTimeout 解析 "Second-3600" 或 "Infinite"，无法解析时为0
func ParseTimeout(value string) time.Duration {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, "Infinite") {
		return -1
	}
	var seconds int64
	if _, err := fmt.Sscanf(value, "Second-%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// FormatTimeout 格式化Timeout头，非正数表示Infinite，不足一秒的部分向上取整
func FormatTimeout(d time.Duration) string {
	if d <= 0 {
		return "Infinite"
	}
	seconds := int64(d / time.Second)
	if d%time.Second != 0 {
		seconds++
	}
	return fmt.Sprintf("Second-%d", seconds)
}

// ParseLockToken 从 Lock-Token 头（"<opaquelocktoken:...>"）中取出令牌
func ParseLockToken(header string) string {
	header = strings.TrimSpace(header)
	header = strings.TrimPrefix(header, "<")
	header = strings.TrimSuffix(header, ">")
	return header
}

// FormatLockToken 生成 Lock-Token 头
func FormatLockToken(token string) string {
	return "<" + ParseLockToken(token) + ">"
}
