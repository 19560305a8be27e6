package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCipherKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := "s3cret-Password!"

	sealed, err := Encrypt(testCipherKey, plain)
	require.NoError(t, err)
	require.NotEqual(t, plain, sealed)

	got, err := Decrypt(testCipherKey, sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt(testCipherKey, "not base64!!!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = Decrypt(testCipherKey, "YWJj") // valid base64, too short
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	sealed, err := Encrypt(testCipherKey, "password")
	require.NoError(t, err)

	otherKey := []byte("fedcba9876543210fedcba9876543210")
	_, err = Decrypt(otherKey, sealed)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestHashPasswordProducesBcrypt(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"), "expected a bcrypt hash, got %q", hash)
}

func TestVerifyPasswordDispatch(t *testing.T) {
	// New rows: bcrypt hash
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(testCipherKey, hash, "password123"))
	assert.False(t, VerifyPassword(testCipherKey, hash, "wrong"))

	// Legacy rows: AES envelope
	sealed, err := Encrypt(testCipherKey, "password123")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(testCipherKey, sealed, "password123"))
	assert.False(t, VerifyPassword(testCipherKey, sealed, "wrong"))
}

func TestVerifyPasswordUndecryptableStored(t *testing.T) {
	assert.False(t, VerifyPassword(testCipherKey, "garbage-stored-value", "anything"))
}

func TestCheckPasswordStrength(t *testing.T) {
	assert.Error(t, CheckPasswordStrength("short"))
	assert.NoError(t, CheckPasswordStrength("longenough"))
}
