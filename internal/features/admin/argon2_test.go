package admin

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

// makeHash строит PHC-строку так же, как scripts/generate_hash.go.
func makeHash(t *testing.T, password string) string {
	t.Helper()
	salt := []byte("0123456789abcdef")
	var (
		memory      uint32 = 65536
		iterations  uint32 = 3
		parallelism uint8  = 2
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func TestVerifyArgon2id(t *testing.T) {
	encoded := makeHash(t, "correct horse battery staple")

	t.Run("CorrectPassword", func(t *testing.T) {
		ok, err := verifyArgon2id(encoded, "correct horse battery staple")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		ok, err := verifyArgon2id(encoded, "hunter2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("MalformedHash", func(t *testing.T) {
		_, err := verifyArgon2id("not-a-hash", "x")
		assert.Error(t, err)

		_, err = verifyArgon2id("$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA", "x")
		assert.Error(t, err)
	})

	t.Run("WrongVersion", func(t *testing.T) {
		_, err := verifyArgon2id("$argon2id$v=16$m=65536,t=3,p=2$c2FsdA$aGFzaA", "x")
		assert.Error(t, err)
	})
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := generateSecureToken()
	require.NoError(t, err)
	b, err := generateSecureToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44) // 32 байта в base64url с паддингом
}
