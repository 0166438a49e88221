package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diptomoy-das/vital-docs-share/pkg/config"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// WalletClaims are the JWT claims the gateway issues and accepts. The
// subject is the caller's wallet address.
type WalletClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// TokenValidator implements JWT token validation and issuance for the
// gateway surface
type TokenValidator struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(cfg *config.JWTConfig) *TokenValidator {
	return &TokenValidator{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      time.Duration(cfg.AccessTokenTTL) * time.Second,
	}
}

// Validate validates a JWT token and returns the wallet identity it was
// issued to
func (tv *TokenValidator) Validate(tokenString string) (types.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WalletClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tv.secret, nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*WalletClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	if claims.Address == "" {
		return "", fmt.Errorf("token carries no wallet address")
	}

	return types.NormalizeIdentity(claims.Address), nil
}

// Generate issues a token for a wallet identity
func (tv *TokenValidator) Generate(identity types.Identity) (string, error) {
	now := time.Now()

	claims := &WalletClaims{
		Address: string(identity),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(identity),
			Issuer:    tv.issuer,
			Audience:  jwt.ClaimStrings{tv.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tv.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tv.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
