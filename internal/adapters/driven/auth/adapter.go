// Package auth provides the cryptographic primitives behind chonkit's
// bearer-token HTTP guard: hashing/verifying the single static API key and
// minting/parsing the short-lived JWT issued in exchange for it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultBcryptCost = bcrypt.DefaultCost
	defaultTokenTTL   = 24 * time.Hour
	tokenSubject      = "chonkit"
)

// Adapter handles authentication cryptographic operations. It does not
// persist anything; the API key hash lives in driven.CredentialStore.
type Adapter struct {
	jwtSecret  []byte
	bcryptCost int
	tokenTTL   time.Duration
}

func NewAdapter(jwtSecret string) *Adapter {
	return NewAdapterWithOptions(jwtSecret, defaultBcryptCost, defaultTokenTTL)
}

func NewAdapterWithOptions(jwtSecret string, bcryptCost int, tokenTTL time.Duration) *Adapter {
	return &Adapter{
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		tokenTTL:   tokenTTL,
	}
}

// HashAPIKey hashes a raw API key for storage.
func (a *Adapter) HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), a.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

// VerifyAPIKey reports whether key matches the stored hash.
func (a *Adapter) VerifyAPIKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

// IssueToken mints a short-lived bearer token, exchanged for a verified API key.
func (a *Adapter) IssueToken() (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tokenSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token's signature and expiry.
func (a *Adapter) ParseToken(tokenString string) error {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errTokenExpired
		}
		return fmt.Errorf("%w: %s", errInvalidToken, err)
	}
	return nil
}

var (
	errTokenExpired = errors.New("auth: token expired")
	errInvalidToken = errors.New("auth: invalid token")
)

func IsTokenExpired(err error) bool { return errors.Is(err, errTokenExpired) }
