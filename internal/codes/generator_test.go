package codes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateShape(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 100; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, r := range code {
			require.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q in %q", r, code)
		}
	}
}

func TestGenerateExcludesAmbiguousGlyphs(t *testing.T) {
	require.NotContains(t, codeAlphabet, "0")
	require.NotContains(t, codeAlphabet, "O")
	require.NotContains(t, codeAlphabet, "1")
	require.NotContains(t, codeAlphabet, "I")
}

func TestGenerateSpread(t *testing.T) {
	g := NewGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	// 500 draws from a 32^6 space; a collision here means the generator is
	// not close to uniform.
	require.Len(t, seen, 500)
}
