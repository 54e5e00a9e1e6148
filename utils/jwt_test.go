package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "bi-mat-test")

	token, err := GenerateToken("user-abc")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", claims.UserID)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "bi-mat-mot")
	token, err := GenerateToken("user-abc")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "bi-mat-hai")
	_, err = VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "bi-mat-test")
	_, err := VerifyToken("khong.phai.jwt")
	assert.Error(t, err)
}
