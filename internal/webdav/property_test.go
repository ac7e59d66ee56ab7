package webdav

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// parseElement 测试辅助：解析XML片段并返回根元素
func parseElement(t *testing.T, data string) *etree.Element {
	t.Helper()
	root, err := xmlutil.Parse([]byte(data))
	require.NoError(t, err)
	return root
}

// ========================================
// 默认解码
// ========================================

func TestProperty_DefaultDecodeConcatenatesText(t *testing.T) {
	el := parseElement(t, `<x:title xmlns:x="urn:example">Hello <![CDATA[<World>]]>!</x:title>`)

	p, err := NewPropertyFromElement(nil, el)
	require.NoError(t, err)
	assert.Equal(t, "urn:example", p.Namespace())
	assert.Equal(t, "title", p.LocalName())

	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "Hello <World>!", value)
}

func TestProperty_SingleElementChildIsUndefined(t *testing.T) {
	el := parseElement(t, `<x:meta xmlns:x="urn:example"><x:inner/></x:meta>`)

	p, err := NewPropertyFromElement(nil, el)
	require.NoError(t, err)

	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, Undefined, value)
	assert.NotNil(t, value)
	assert.NotEqual(t, "", value)
}

func TestProperty_EmptyElementIsNil(t *testing.T) {
	el := parseElement(t, `<D:displayname xmlns:D="DAV:"/>`)

	p, err := NewPropertyFromElement(nil, el)
	require.NoError(t, err)

	value, err := p.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, "", p.String())
}

func TestProperty_NoContentIsNil(t *testing.T) {
	p := NewProperty(nil, "urn:example", "title")

	raw, err := p.RawXML()
	require.NoError(t, err)
	assert.Nil(t, raw)

	value, err := p.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

// ========================================
// 双视图
// ========================================

func TestProperty_SetValueEncodesCData(t *testing.T) {
	p := NewProperty(nil, "urn:example", "title")
	p.SetValue("a & b")

	raw, err := p.RawXML()
	require.NoError(t, err)
	require.Len(t, raw, 1)
	cd, ok := raw[0].(*etree.CharData)
	require.True(t, ok)
	assert.True(t, cd.IsCData())
	assert.Equal(t, "a & b", cd.Data)
}

func TestProperty_SetValueNonStringUsesDefaultFormatting(t *testing.T) {
	p := NewProperty(nil, "urn:example", "count")
	p.SetValue(42)

	raw, err := p.RawXML()
	require.NoError(t, err)
	text, ok := xmlutil.TextContent(raw)
	require.True(t, ok)
	assert.Equal(t, "42", text)
}

func TestProperty_WriteInvalidatesDerivedSide(t *testing.T) {
	reg := NewCodecRegistry()
	decodes := 0
	require.NoError(t, reg.Register("urn:example", "n", func(nodes []etree.Token) (any, error) {
		decodes++
		text, _ := xmlutil.TextContent(nodes)
		return strings.ToUpper(text), nil
	}, nil))

	p := NewProperty(reg, "urn:example", "n")
	require.NoError(t, p.SetRawXML([]etree.Token{etree.NewText("abc")}))

	v1, err := p.Value()
	require.NoError(t, err)
	v2, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "ABC", v1)
	assert.Equal(t, "ABC", v2)
	assert.Equal(t, 1, decodes, "解码结果应被缓存")

	require.NoError(t, p.SetRawXML([]etree.Token{etree.NewText("xyz")}))
	v3, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "XYZ", v3)
	assert.Equal(t, 2, decodes)

	p.SetValue("direct")
	raw, err := p.RawXML()
	require.NoError(t, err)
	text, ok := xmlutil.TextContent(raw)
	require.True(t, ok)
	assert.Equal(t, "direct", text)

	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "direct", value)
	assert.Equal(t, 2, decodes, "权威侧是解码值时不应再解码")
}

func TestProperty_SetRawXMLCopiesNodes(t *testing.T) {
	text := etree.NewText("before")
	p := NewProperty(nil, "urn:example", "title")
	require.NoError(t, p.SetRawXML([]etree.Token{text}))

	text.Data = "after"
	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "before", value)
}

func TestProperty_SetRawXMLRejectsInvalidNodes(t *testing.T) {
	p := NewProperty(nil, "urn:example", "title")

	err := p.SetRawXML([]etree.Token{etree.NewElement("")})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongType))
}

func TestProperty_SetRawXMLNilClearsContent(t *testing.T) {
	p := NewProperty(nil, "urn:example", "title")
	p.SetValue("x")
	require.NoError(t, p.SetRawXML(nil))

	value, err := p.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestProperty_DecodeErrorKeepsKind(t *testing.T) {
	codecs := NewCodecs()
	p := codecs.NewProperty(types.NamespaceDAV, "getcontentlength")
	require.NoError(t, p.SetRawXML([]etree.Token{etree.NewText("many")}))

	_, err := p.Value()
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongValue))
}

// ========================================
// 状态码
// ========================================

func TestProperty_StatusBounds(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantErr bool
	}{
		{name: "下界以下", code: 199, wantErr: true},
		{name: "下界", code: 200},
		{name: "上界", code: 599},
		{name: "上界以上", code: 600, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProperty(nil, types.NamespaceDAV, "getetag")
			err := p.SetStatus(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsKind(err, types.KindWrongValue))
				_, ok := p.Status()
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			code, ok := p.Status()
			assert.True(t, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestProperty_StatusLine(t *testing.T) {
	p := NewProperty(nil, types.NamespaceDAV, "getetag")
	assert.Equal(t, "", p.StatusLine())

	require.NoError(t, p.SetStatusLine("HTTP/1.1 404 Not Found"))
	code, ok := p.Status()
	assert.True(t, ok)
	assert.Equal(t, 404, code)
	assert.Equal(t, "HTTP/1.1 404 Not Found", p.StatusLine())

	require.NoError(t, p.SetStatus(200))
	assert.Equal(t, "HTTP/1.1 200 OK", p.StatusLine())

	p.ClearStatus()
	_, ok = p.Status()
	assert.False(t, ok)
}

func TestProperty_Errors(t *testing.T) {
	p := NewProperty(nil, types.NamespaceDAV, "displayname")

	err := p.AddError(nil)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongType))

	require.NoError(t, p.AddError(xmlutil.NewDAVElement("cannot-modify-protected-property")))
	errs := p.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "cannot-modify-protected-property", errs[0].Tag)
	assert.Equal(t, types.NamespaceDAV, errs[0].NamespaceURI())
}

func TestProperty_ToElement(t *testing.T) {
	p := NewProperty(nil, "urn:example", "title")
	p.SetValue("Report")

	el, err := p.ToElement()
	require.NoError(t, err)

	out, err := xmlutil.NewSerializer().WithoutDeclaration().SerializeString(el)
	require.NoError(t, err)
	assert.Equal(t, `<ns1:title xmlns:ns1="urn:example"><![CDATA[Report]]></ns1:title>`, out)
}

func TestPrivilege_DualView(t *testing.T) {
	el := parseElement(t, `<D:read xmlns:D="DAV:"/>`)

	p, err := NewPrivilegeFromElement(nil, el)
	require.NoError(t, err)
	assert.Equal(t, types.NamespaceDAV, p.Namespace())
	assert.Equal(t, "read", p.LocalName())

	value, err := p.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	p.SetValue("note")
	out, err := p.ToElement()
	require.NoError(t, err)
	assert.Equal(t, "note", xmlutil.Text(out))
}
