package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opla/zoauth/storage"
)

func TestGenerateToken(t *testing.T) {
	t.Run("odd and even lengths", func(t *testing.T) {
		for _, length := range []int{1, 6, 32, 48, 63, 64} {
			token, err := storage.GenerateToken(length)
			require.NoError(t, err)
			require.Len(t, token, length)
			require.Regexp(t, "^[0-9a-f]+$", token)
		}
	})

	t.Run("rejects non positive lengths", func(t *testing.T) {
		_, err := storage.GenerateToken(0)
		require.Error(t, err)
	})

	t.Run("tokens do not repeat", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			token, err := storage.GenerateToken(32)
			require.NoError(t, err)
			require.False(t, seen[token])
			seen[token] = true
		}
	})
}
