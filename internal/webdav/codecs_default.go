package webdav

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// ResourceType DAV:resourcetype 的解码值
type ResourceType int

const (
	ResourceUnspecified ResourceType = iota
	ResourceCollection
	ResourcePrincipal
)

func (r ResourceType) String() string {
	switch r {
	case ResourceCollection:
		return "collection"
	case ResourcePrincipal:
		return "principal"
	default:
		return "unspecified"
	}
}

// RegisterDefaultCodecs 注册RFC 4918常用活属性的编解码
func RegisterDefaultCodecs(reg *CodecRegistry) error {
	defaults := []struct {
		local  string
		decode DecodeFunc
		encode EncodeFunc
	}{
		{"creationdate", decodeCreationDate, encodeCreationDate},
		{"getlastmodified", decodeLastModified, encodeLastModified},
		{"getcontentlength", decodeContentLength, encodeContentLength},
		{"owner", decodeHref, encodeHref},
		{"group", decodeHref, encodeHref},
		{"resourcetype", decodeResourceType, encodeResourceType},
	}
	for _, d := range defaults {
		if err := reg.Register(types.NamespaceDAV, d.local, d.decode, d.encode); err != nil {
			return err
		}
	}
	return nil
}

// textValue 取文本内容，含有元素时返回false
func textValue(nodes []etree.Token) (string, bool) {
	text, ok := xmlutil.TextContent(nodes)
	if !ok {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

func decodeCreationDate(nodes []etree.Token) (any, error) {
	text, ok := textValue(nodes)
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil, types.WrapError(types.KindWrongValue, err, "invalid creationdate %q", text)
	}
	return t, nil
}

func encodeCreationDate(value any, doc *etree.Element) ([]etree.Token, error) {
	t, err := timeValue(value)
	if err != nil {
		return nil, err
	}
	doc.AddChild(etree.NewCData(t.UTC().Format(time.RFC3339Nano)))
	return doc.Child, nil
}

func decodeLastModified(nodes []etree.Token) (any, error) {
	text, ok := textValue(nodes)
	if !ok {
		return nil, nil
	}
	t, err := http.ParseTime(text)
	if err != nil {
		return nil, types.WrapError(types.KindWrongValue, err, "invalid getlastmodified %q", text)
	}
	return t, nil
}

func encodeLastModified(value any, doc *etree.Element) ([]etree.Token, error) {
	t, err := timeValue(value)
	if err != nil {
		return nil, err
	}
	doc.AddChild(etree.NewCData(t.UTC().Format(http.TimeFormat)))
	return doc.Child, nil
}

func timeValue(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	}
	return time.Time{}, types.NewError(types.KindWrongType, "expected time.Time, got %T", value)
}

func decodeContentLength(nodes []etree.Token) (any, error) {
	text, ok := textValue(nodes)
	if !ok {
		return nil, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 {
		return nil, types.NewError(types.KindWrongValue, "invalid getcontentlength %q", text)
	}
	return n, nil
}

func encodeContentLength(value any, doc *etree.Element) ([]etree.Token, error) {
	var n int64
	switch v := value.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return nil, types.NewError(types.KindWrongValue, "content length %d overflows int64", v)
		}
		n = int64(v)
	default:
		return nil, types.NewError(types.KindWrongType, "expected integer content length, got %T", value)
	}
	if n < 0 {
		return nil, types.NewError(types.KindWrongValue, "content length %d is negative", n)
	}
	doc.AddChild(etree.NewText(strconv.FormatInt(n, 10)))
	return doc.Child, nil
}

// decodeHref 取第一个 <href> 的文本，没有时为nil
func decodeHref(nodes []etree.Token) (any, error) {
	for _, node := range nodes {
		el, ok := node.(*etree.Element)
		if ok && xmlutil.Is(el, types.NamespaceDAV, "href") {
			return xmlutil.Text(el), nil
		}
	}
	return nil, nil
}

func encodeHref(value any, doc *etree.Element) ([]etree.Token, error) {
	href, ok := value.(string)
	if !ok {
		return nil, types.NewError(types.KindWrongType, "expected href string, got %T", value)
	}
	doc.AddChild(textElement("href", href))
	return doc.Child, nil
}

// decodeHrefList 取全部 <href> 的文本
func decodeHrefList(nodes []etree.Token) (any, error) {
	hrefs := []string{}
	for _, node := range nodes {
		el, ok := node.(*etree.Element)
		if ok && xmlutil.Is(el, types.NamespaceDAV, "href") {
			hrefs = append(hrefs, xmlutil.Text(el))
		}
	}
	return hrefs, nil
}

func encodeHrefList(value any, doc *etree.Element) ([]etree.Token, error) {
	hrefs, ok := value.([]string)
	if !ok {
		return nil, types.NewError(types.KindWrongType, "expected []string, got %T", value)
	}
	for _, href := range hrefs {
		doc.AddChild(textElement("href", href))
	}
	return doc.Child, nil
}

func decodeResourceType(nodes []etree.Token) (any, error) {
	for _, node := range nodes {
		el, ok := node.(*etree.Element)
		if !ok || !xmlutil.IsDAV(el) {
			continue
		}
		switch el.Tag {
		case "collection":
			return ResourceCollection, nil
		case "principal":
			return ResourcePrincipal, nil
		}
	}
	return ResourceUnspecified, nil
}

func encodeResourceType(value any, doc *etree.Element) ([]etree.Token, error) {
	rt, ok := value.(ResourceType)
	if !ok {
		return nil, types.NewError(types.KindWrongType, "expected ResourceType, got %T", value)
	}
	switch rt {
	case ResourceCollection, ResourcePrincipal:
		doc.AddChild(xmlutil.NewDAVElement(rt.String()))
	}
	return doc.Child, nil
}
