package apikeys

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken_AndValidateFormatAndHash(t *testing.T) {
	token, hash, err := GenerateToken()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(token, "ffk_"))
	require.True(t, ValidateTokenFormat(token))
	require.Len(t, hash, sha256.Size)
	require.Equal(t, HashToken(token), hash)
}

func TestGenerateToken_Unique(t *testing.T) {
	a, _, err := GenerateToken()
	require.NoError(t, err)
	b, _, err := GenerateToken()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestValidateTokenFormat_Invalid(t *testing.T) {
	require.False(t, ValidateTokenFormat("nope_abc"))
	require.False(t, ValidateTokenFormat("ffk_"))
	require.False(t, ValidateTokenFormat("ffk_!!!"))
	require.False(t, ValidateTokenFormat("ffk_YWJj"))
}
