package submissions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefCodeRoundTrip(t *testing.T) {
	g, err := NewRefCodeGenerator("unit-salt")
	require.NoError(t, err)

	for _, id := range []int64{1, 42, 100000} {
		code, err := g.Generate(id)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(code, "SUB-"), "code %q", code)
		assert.GreaterOrEqual(t, len(code), len("SUB-")+8)

		decoded, err := g.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestRefCodeSaltChangesCodes(t *testing.T) {
	a, err := NewRefCodeGenerator("salt-a")
	require.NoError(t, err)
	b, err := NewRefCodeGenerator("salt-b")
	require.NoError(t, err)

	codeA, err := a.Generate(7)
	require.NoError(t, err)
	codeB, err := b.Generate(7)
	require.NoError(t, err)
	assert.NotEqual(t, codeA, codeB)
}

func TestRefCodeDecodeRejectsGarbage(t *testing.T) {
	g, err := NewRefCodeGenerator("unit-salt")
	require.NoError(t, err)

	for _, code := range []string{"", "SUB-", "SUB-!!!!!!!!", "notacode"} {
		_, err := g.Decode(code)
		assert.Error(t, err, "code %q", code)
	}
}
