package webdav

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdav-gateway/davclient/internal/types"
)

func TestCodecRegistry_Register(t *testing.T) {
	reg := NewCodecRegistry()

	err := reg.Register("urn:example", "", nil, nil)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindWrongType))

	decode := func(nodes []etree.Token) (any, error) { return "first", nil }
	require.NoError(t, reg.Register("urn:example", "title", decode, nil))
	assert.Equal(t, 1, reg.Len())

	codec, ok := reg.Lookup("urn:example", "title")
	require.True(t, ok)
	assert.NotNil(t, codec.Decode)
	assert.Nil(t, codec.Encode)

	_, ok = reg.Lookup("urn:other", "title")
	assert.False(t, ok)
}

func TestCodecRegistry_LaterRegistrationWins(t *testing.T) {
	reg := NewCodecRegistry()
	require.NoError(t, reg.Register("urn:example", "n", func(nodes []etree.Token) (any, error) { return 1, nil }, nil))
	require.NoError(t, reg.Register("urn:example", "n", func(nodes []etree.Token) (any, error) { return 2, nil }, nil))

	p := NewProperty(reg, "urn:example", "n")
	require.NoError(t, p.SetRawXML([]etree.Token{etree.NewText("x")}))
	value, err := p.Value()
	require.NoError(t, err)
	assert.Equal(t, 2, value)
	assert.Equal(t, 1, reg.Len())
}

func TestCodecRegistry_Freeze(t *testing.T) {
	reg := NewCodecRegistry()
	reg.Freeze()

	err := reg.Register("urn:example", "title", nil, nil)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindNamespaceTaken))
}

func TestCodecRegistry_NilLookup(t *testing.T) {
	var reg *CodecRegistry
	_, ok := reg.Lookup(types.NamespaceDAV, "getetag")
	assert.False(t, ok)
}

func TestNewCodecs_InstallsDefaults(t *testing.T) {
	codecs := NewCodecs()

	for _, local := range []string{
		"creationdate", "getlastmodified", "getcontentlength", "owner", "resourcetype",
		"acl", "current-user-privilege-set", "principal-collection-set", "inherited-acl-set",
	} {
		_, ok := codecs.Properties.Lookup(types.NamespaceDAV, local)
		assert.True(t, ok, local)
	}
	assert.Equal(t, 0, codecs.Privileges.Len())
}

func TestNewCodecs_AreIndependent(t *testing.T) {
	a := NewCodecs()
	b := NewCodecs()
	require.NoError(t, a.Properties.Register("urn:example", "x", nil, nil))

	_, ok := b.Properties.Lookup("urn:example", "x")
	assert.False(t, ok)
}
