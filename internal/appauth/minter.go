// Package appauth mints the short-lived signed assertion a GitHub App
// presents when requesting an installation access token.
package appauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

const (
	// assertionBackdate tolerates clock skew between client and server.
	assertionBackdate = time.Minute
	// assertionWindow is the iat..exp span. GitHub enforces a 10 minute
	// maximum; with the backdate the token expires 9 minutes from now.
	assertionWindow = 10 * time.Minute
)

// Mint builds an RS256-signed assertion for the given app identity. The
// claims are exactly iat, exp, and iss. now is injectable for deterministic
// tests; pass nil outside of tests.
func Mint(appID string, privateKeyPEM []byte, now func() time.Time) (string, error) {
	if now == nil {
		now = time.Now
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return "", &domain.CredentialError{Err: err}
	}

	issuedAt := now().Add(-assertionBackdate)
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(assertionWindow)),
		Issuer:    appID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", &domain.CredentialError{Err: err}
	}
	return signed, nil
}
