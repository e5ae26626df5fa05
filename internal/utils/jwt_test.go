package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessToken(t *testing.T) {
	tok, err := NewAccessToken("secret", "op-7", "ADMIN", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, time.Minute)

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	sub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, "op-7", sub)
	assert.Equal(t, "ADMIN", claims["role"])

	_, err = jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("other"), nil })
	assert.Error(t, err)
}
