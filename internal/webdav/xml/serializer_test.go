package xml

import (
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdav-gateway/davclient/internal/types"
)

func TestSerializer_PrefixesNamespaces(t *testing.T) {
	root := NewDAVElement("prop")
	root.AddChild(NewElement("urn:a", "one"))
	root.AddChild(NewElement("urn:b", "two"))
	root.AddChild(NewElement("urn:a", "three"))

	out, err := NewSerializer().WithoutDeclaration().SerializeString(root)
	require.NoError(t, err)
	assert.Equal(t,
		`<D:prop xmlns:D="DAV:" xmlns:ns1="urn:a" xmlns:ns2="urn:b"><ns1:one/><ns2:two/><ns1:three/></D:prop>`,
		out)
}

func TestSerializer_Declaration(t *testing.T) {
	out, err := NewSerializer().SerializeString(NewDAVElement("multistatus"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, out, `<D:multistatus xmlns:D="DAV:"/>`)
}

func TestSerializer_DoesNotModifyInput(t *testing.T) {
	root := NewDAVElement("prop")
	child := NewElement("urn:a", "one")
	root.AddChild(child)

	_, err := NewSerializer().WithIndent(2).Serialize(root)
	require.NoError(t, err)
	assert.Equal(t, "", root.Space)
	assert.Equal(t, "urn:a", child.NamespaceURI())
	assert.Len(t, root.Child, 1)
}

func TestSerializer_NilRoot(t *testing.T) {
	_, err := NewSerializer().Serialize(nil)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongType))
}

func TestSerializer_KeepsCDataAndAttributes(t *testing.T) {
	root := NewElement("urn:a", "note")
	root.CreateAttr("lang", "en")
	root.AddChild(etree.NewCData("<b>bold</b>"))

	out, err := NewSerializer().WithoutDeclaration().SerializeString(root)
	require.NoError(t, err)
	assert.Equal(t, `<ns1:note xmlns:ns1="urn:a" lang="en"><![CDATA[<b>bold</b>]]></ns1:note>`, out)
}

func TestSerializer_PrefixedAttributes(t *testing.T) {
	root, err := Parse([]byte(`<D:prop xmlns:D="DAV:" xmlns:Z="urn:z" xmlns:Q="urn:q"><Z:color Z:shade="dark" plain="1" Q:id="7"/></D:prop>`))
	require.NoError(t, err)

	out, err := NewSerializer().WithoutDeclaration().SerializeString(root)
	require.NoError(t, err)
	assert.Equal(t, `<D:prop xmlns:D="DAV:" xmlns:ns1="urn:z" xmlns:ns2="urn:q"><ns1:color ns1:shade="dark" plain="1" ns2:id="7"/></D:prop>`, out)
}

func TestParse(t *testing.T) {
	root, err := Parse([]byte(`<?xml version="1.0"?><D:multistatus xmlns:D="DAV:"><D:response/></D:multistatus>`))
	require.NoError(t, err)
	assert.True(t, Is(root, types.NamespaceDAV, "multistatus"))
	assert.Len(t, DAVChildren(root), 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "空内容", data: ""},
		{name: "只有空白", data: "  \n "},
		{name: "语法错误", data: "<<oops>>"},
		{name: "没有根元素", data: "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindWrongXML))
		})
	}
}

func TestParse_PreservesCData(t *testing.T) {
	root, err := Parse([]byte(`<a><![CDATA[x < y]]></a>`))
	require.NoError(t, err)
	require.Len(t, root.Child, 1)
	cd, ok := root.Child[0].(*etree.CharData)
	require.True(t, ok)
	assert.True(t, cd.IsCData())
	assert.Equal(t, "x < y", cd.Data)
}
