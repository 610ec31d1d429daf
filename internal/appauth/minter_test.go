package appauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aki-fujii/copilot-pr-metrics/internal/domain"
)

// testRSAKeyPEM generates a throwaway RSA key pair for signing tests.
func testRSAKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return pemBytes, key
}

func TestMint_ClaimsWindow(t *testing.T) {
	pemBytes, key := testRSAKeyPEM(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	signed, err := Mint("12345", pemBytes, clock)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(signed, claims,
		func(token *jwt.Token) (interface{}, error) { return &key.PublicKey, nil },
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(clock),
		jwt.WithIssuedAt(),
	)
	require.NoError(t, err)

	assert.Equal(t, "12345", claims.Issuer)
	// Backdated one minute, and the iat..exp span is exactly 600 seconds.
	assert.Equal(t, now.Add(-time.Minute).Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(9*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, int64(600), claims.ExpiresAt.Unix()-claims.IssuedAt.Unix())
}

func TestMint_FreshAssertionPerCall(t *testing.T) {
	pemBytes, _ := testRSAKeyPEM(t)

	first, err := Mint("12345", pemBytes, func() time.Time { return time.Unix(1_700_000_000, 0) })
	require.NoError(t, err)
	second, err := Mint("12345", pemBytes, func() time.Time { return time.Unix(1_700_000_100, 0) })
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestMint_BadKeyMaterial(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ecDER, err := x509.MarshalPKCS8PrivateKey(ecKey)
	require.NoError(t, err)
	ecPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: ecDER})

	testCases := []struct {
		name string
		pem  []byte
	}{
		{name: "not PEM at all", pem: []byte("this is not a key")},
		{name: "empty key material", pem: nil},
		{name: "unsupported key type", pem: ecPEM},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Mint("12345", tc.pem, nil)
			require.Error(t, err)
			var credErr *domain.CredentialError
			assert.ErrorAs(t, err, &credErr)
		})
	}
}
