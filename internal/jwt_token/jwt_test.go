package jwttoken

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer", "authenticated")
var userID = id.UserID(uuid.New())

func Test_GenerateAndValidate(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, "ada@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken(context.Background(), "invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(userID, "", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.Message(err))
}

func Test_ValidateToken_WrongSecret(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "authenticated")
	token, err := other.GenerateAccessToken(userID, "", time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(context.Background(), token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "service_role")
	token, err := other.GenerateAccessToken(userID, "", time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(context.Background(), token)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_NonUUIDSubject(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "anon",
			Issuer:    "test-issuer",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, "token subject is not a user id", dErrors.Message(err))
}

func Test_ValidateToken_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	set := map[string]any{"keys": []map[string]string{{
		"kty": "RSA",
		"kid": "k1",
		"alg": "RS256",
		"use": "sig",
		"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	jwks, err := keyfunc.NewJWKSetJSON(raw)
	require.NoError(t, err)
	svc := NewKeyfuncService(jwks, "", "authenticated")

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		Email: "rs@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(key)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	// HS256 tokens are refused by an asymmetric verifier.
	hs, err := jwtService.GenerateAccessToken(userID, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), hs)
	assert.Error(t, err)

	_, err = svc.GenerateAccessToken(userID, "", time.Hour)
	assert.Error(t, err)
}
