// Package jwttoken verifies bearer tokens issued by the hosted auth service.
package jwttoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	authmw "atelier/pkg/platform/middleware/auth"
)

// Claims mirrors what the auth service puts in its access tokens: the user
// UUID in sub and the email as a custom claim.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService validates access tokens against a shared HS256 secret or a
// remote JWKS. Only HMAC-configured services can mint tokens.
type JWTService struct {
	keyfunc    jwt.Keyfunc
	methods    []string
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	key := []byte(signingKey)
	return &JWTService{
		keyfunc: func(*jwt.Token) (any, error) {
			return key, nil
		},
		methods:    []string{jwt.SigningMethodHS256.Alg()},
		signingKey: key,
		issuer:     issuer,
		audience:   audience,
	}
}

// NewJWKSService fetches and refreshes signing keys from jwksURL in the background.
func NewJWKSService(ctx context.Context, jwksURL string, issuer string, audience string) (*JWTService, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS from %s: %w", jwksURL, err)
	}
	return NewKeyfuncService(jwks, issuer, audience), nil
}

// NewKeyfuncService verifies asymmetric tokens with an existing key set.
func NewKeyfuncService(jwks keyfunc.Keyfunc, issuer string, audience string) *JWTService {
	return &JWTService{
		keyfunc:  jwks.Keyfunc,
		methods:  []string{"RS256", "ES256", "EdDSA"},
		issuer:   issuer,
		audience: audience,
	}
}

// GenerateAccessToken mints an HS256 token for local development and tests.
func (s *JWTService) GenerateAccessToken(userID id.UserID, email string, expiresIn time.Duration) (string, error) {
	if s.signingKey == nil {
		return "", errors.New("token minting requires a shared secret")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(_ context.Context, tokenString string) (*authmw.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(s.methods),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyfunc, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user id")
	}

	return &authmw.Claims{UserID: userID, Email: claims.Email}, nil
}
