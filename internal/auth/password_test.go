package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("pwd25")
	require.NoError(t, err)
	require.Len(t, hash, 97)

	ok, err := VerifyPassword("pwd25", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("pwd26", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPassword_Salted(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	t.Parallel()

	for _, h := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$a2V5", "$argon2id$v=19$m=x$c2FsdA$a2V5"} {
		_, err := VerifyPassword("pwd", h)
		require.ErrorIs(t, err, ErrInvalidHash, h)
	}
}
