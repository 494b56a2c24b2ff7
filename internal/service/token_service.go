package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"boostgate/internal/core/ports"
)

// JWTTokenService implements ports.TokenService using HS256 JWT. The jti
// claim keys the server-side session record, so a token outlives its
// session only on paper.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate creates a signed JWT plus the session-keying token ID.
func (s *JWTTokenService) Generate(userID uuid.UUID) (string, string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)
	tokenID := uuid.NewString()

	claims := jwt.MapClaims{
		"sub": userID.String(),
		"jti": tokenID,
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
		"iss": s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return tokenString, tokenID, expiresAt, nil
}

// Validate parses and validates a JWT token, returning the claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("missing subject claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	tokenID, ok := claims["jti"].(string)
	if !ok || tokenID == "" {
		return nil, fmt.Errorf("missing token ID claim")
	}

	return &ports.TokenClaims{
		UserID:  userID,
		TokenID: tokenID,
	}, nil
}
