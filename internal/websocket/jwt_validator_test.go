package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{}
	assert.NoError(t, claims.Validate(context.Background()))
}

func TestNewAuth0JWTValidator_Success(t *testing.T) {
	v, err := NewAuth0JWTValidator("test.auth0.com", "https://api.loandesk.app")
	require.NoError(t, err)
	assert.NotNil(t, v.validator)
}

func TestAuth0JWTValidator_ValidateToken_InvalidJWT(t *testing.T) {
	v, err := NewAuth0JWTValidator("test.auth0.com", "https://api.loandesk.app")
	require.NoError(t, err)

	staffID, err := v.ValidateToken(context.Background(), "invalid-token")
	assert.Empty(t, staffID)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
