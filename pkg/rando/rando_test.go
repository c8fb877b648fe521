package rando

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrongRandomAlphaNumChars(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := StrongRandomAlphaNumChars(30)
		require.Len(t, s, 30)
		for _, c := range s {
			require.True(t, strings.ContainsRune(alphaNumChars, c))
		}
		require.False(t, seen[s], "tokens must not repeat")
		seen[s] = true
	}
}
