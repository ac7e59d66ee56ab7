package webdav

import (
	"math"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdav-gateway/davclient/internal/types"
	xmlutil "github.com/webdav-gateway/davclient/internal/webdav/xml"
)

// decodeFrom 测试辅助：按编解码表解析 <prop> 下的单个属性
func decodeFrom(t *testing.T, codecs *Codecs, data string) *Property {
	t.Helper()
	p, err := NewPropertyFromElement(codecs.Properties, parseElement(t, data))
	require.NoError(t, err)
	return p
}

// reencode 把解码值写入新属性，再取出编码结果重新解码
func reencode(t *testing.T, codecs *Codecs, local string, value any) (*Property, any) {
	t.Helper()
	out := codecs.NewProperty(types.NamespaceDAV, local)
	out.SetValue(value)
	raw, err := out.RawXML()
	require.NoError(t, err)

	back := codecs.NewProperty(types.NamespaceDAV, local)
	require.NoError(t, back.SetRawXML(raw))
	decoded, err := back.Value()
	require.NoError(t, err)
	return out, decoded
}

func TestDefaultCodecs_Dates(t *testing.T) {
	codecs := NewCodecs()

	created := decodeFrom(t, codecs, `<D:creationdate xmlns:D="DAV:">2024-03-05T10:20:30Z</D:creationdate>`)
	value, err := created.Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), value)

	_, back := reencode(t, codecs, "creationdate", value)
	assert.Equal(t, value, back)

	precise := time.Date(2024, 3, 5, 10, 0, 0, 123000000, time.UTC)
	out, back := reencode(t, codecs, "creationdate", precise)
	assert.True(t, precise.Equal(back.(time.Time)))
	raw, err := out.RawXML()
	require.NoError(t, err)
	text, ok := xmlutil.TextContent(raw)
	require.True(t, ok)
	assert.Equal(t, "2024-03-05T10:00:00.123Z", text)

	modified := decodeFrom(t, codecs, `<D:getlastmodified xmlns:D="DAV:">Tue, 05 Mar 2024 10:20:30 GMT</D:getlastmodified>`)
	value, err = modified.Value()
	require.NoError(t, err)
	want := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)
	assert.True(t, want.Equal(value.(time.Time)))

	out, back = reencode(t, codecs, "getlastmodified", want)
	assert.True(t, want.Equal(back.(time.Time)))
	raw, err = out.RawXML()
	require.NoError(t, err)
	text, ok = xmlutil.TextContent(raw)
	require.True(t, ok)
	assert.Equal(t, "Tue, 05 Mar 2024 10:20:30 GMT", text)
}

func TestDefaultCodecs_InvalidDate(t *testing.T) {
	p := decodeFrom(t, NewCodecs(), `<D:creationdate xmlns:D="DAV:">yesterday</D:creationdate>`)
	_, err := p.Value()
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongValue))
}

func TestDefaultCodecs_EncodeWrongType(t *testing.T) {
	tests := []struct {
		name  string
		local string
		value any
	}{
		{name: "日期", local: "creationdate", value: "2024-03-05"},
		{name: "长度", local: "getcontentlength", value: "12"},
		{name: "所有者", local: "owner", value: 12},
		{name: "资源类型", local: "resourcetype", value: "collection"},
		{name: "ACL", local: "acl", value: "none"},
		{name: "权限集合", local: "current-user-privilege-set", value: []string{"read"}},
		{name: "href列表", local: "principal-collection-set", value: "/principals/"},
	}

	codecs := NewCodecs()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := codecs.NewProperty(types.NamespaceDAV, tt.local)
			p.SetValue(tt.value)
			_, err := p.RawXML()
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindWrongType))
		})
	}
}

func TestDefaultCodecs_ContentLength(t *testing.T) {
	codecs := NewCodecs()

	p := decodeFrom(t, codecs, `<D:getcontentlength xmlns:D="DAV:"> 4096 </D:getcontentlength>`)
	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(4096), value)

	_, back := reencode(t, codecs, "getcontentlength", 512)
	assert.Equal(t, int64(512), back)

	tests := []struct {
		name  string
		value any
	}{
		{name: "超出int64", value: uint64(math.MaxInt64) + 1},
		{name: "负数", value: int64(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := codecs.NewProperty(types.NamespaceDAV, "getcontentlength")
			p.SetValue(tt.value)
			_, err := p.RawXML()
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindWrongValue))
		})
	}
}

func TestDefaultCodecs_Owner(t *testing.T) {
	codecs := NewCodecs()

	p := decodeFrom(t, codecs, `<D:owner xmlns:D="DAV:"><D:href>/principals/alice</D:href></D:owner>`)
	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, "/principals/alice", value)

	_, back := reencode(t, codecs, "owner", "/principals/bob")
	assert.Equal(t, "/principals/bob", back)

	empty := decodeFrom(t, codecs, `<D:owner xmlns:D="DAV:"><D:unknown/></D:owner>`)
	value, err = empty.Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestDefaultCodecs_ResourceType(t *testing.T) {
	tests := []struct {
		name string
		data string
		want ResourceType
	}{
		{name: "集合", data: `<D:resourcetype xmlns:D="DAV:"><D:collection/></D:resourcetype>`, want: ResourceCollection},
		{name: "主体", data: `<D:resourcetype xmlns:D="DAV:"><D:principal/></D:resourcetype>`, want: ResourcePrincipal},
		{name: "其它", data: `<D:resourcetype xmlns:D="DAV:" xmlns:C="urn:cal"><C:calendar/></D:resourcetype>`, want: ResourceUnspecified},
	}

	codecs := NewCodecs()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := decodeFrom(t, codecs, tt.data).Value()
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)

			_, back := reencode(t, codecs, "resourcetype", tt.want)
			if tt.want == ResourceUnspecified {
				// 编码结果没有子节点，解码为nil
				assert.Nil(t, back)
				return
			}
			assert.Equal(t, tt.want, back)
		})
	}
}

func TestACLCodecs_HrefList(t *testing.T) {
	codecs := NewCodecs()

	p := decodeFrom(t, codecs, `<D:principal-collection-set xmlns:D="DAV:"><D:href>/principals/users/</D:href><D:href>/principals/groups/</D:href></D:principal-collection-set>`)
	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, []string{"/principals/users/", "/principals/groups/"}, value)

	_, back := reencode(t, codecs, "inherited-acl-set", []string{"/a/", "/b/"})
	assert.Equal(t, []string{"/a/", "/b/"}, back)
}

func TestACLCodecs_PrivilegeSet(t *testing.T) {
	codecs := NewCodecs()

	p := decodeFrom(t, codecs, `<D:current-user-privilege-set xmlns:D="DAV:" xmlns:Z="urn:example">
  <D:privilege><D:read/></D:privilege>
  <D:privilege><Z:audit/></D:privilege>
  <D:write/>
</D:current-user-privilege-set>`)
	value, err := p.Value()
	require.NoError(t, err)

	privileges, ok := value.([]*Privilege)
	require.True(t, ok)
	require.Len(t, privileges, 3)
	assert.Equal(t, "read", privileges[0].LocalName())
	assert.Equal(t, "urn:example", privileges[1].Namespace())
	assert.Equal(t, "write", privileges[2].LocalName())

	_, back := reencode(t, codecs, "current-user-privilege-set", privileges)
	again, ok := back.([]*Privilege)
	require.True(t, ok)
	require.Len(t, again, 3)
	for i := range privileges {
		assert.Equal(t, privileges[i].Namespace(), again[i].Namespace())
		assert.Equal(t, privileges[i].LocalName(), again[i].LocalName())
	}
}

func TestACLCodecs_Acl(t *testing.T) {
	codecs := NewCodecs()

	p := decodeFrom(t, codecs, `<D:acl xmlns:D="DAV:">
  <D:ace>
    <D:principal><D:authenticated/></D:principal>
    <D:grant><D:privilege><D:read/></D:privilege></D:grant>
  </D:ace>
</D:acl>`)
	value, err := p.Value()
	require.NoError(t, err)

	acl, ok := value.(*Acl)
	require.True(t, ok)
	require.Equal(t, 1, acl.Len())
	ace, err := acl.GetAce(0)
	require.NoError(t, err)
	assert.Equal(t, PrincipalAuthenticated, ace.Principal)

	out, back := reencode(t, codecs, "acl", acl)
	again, ok := back.(*Acl)
	require.True(t, ok)
	assert.Equal(t, 1, again.Len())

	el, err := out.ToElement()
	require.NoError(t, err)
	assert.True(t, xmlutil.Is(el, types.NamespaceDAV, "acl"))
	require.Len(t, el.ChildElements(), 1)
	assert.Equal(t, "ace", el.ChildElements()[0].Tag)
}

func TestCustomCodec_EncodeResultIsValidated(t *testing.T) {
	codecs := NewEmptyCodecs()
	require.NoError(t, codecs.Properties.Register("urn:example", "bad", nil, func(value any, doc *etree.Element) ([]etree.Token, error) {
		return []etree.Token{etree.NewElement("")}, nil
	}))

	p := codecs.NewProperty("urn:example", "bad")
	p.SetValue("x")
	_, err := p.RawXML()
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongType))
}
