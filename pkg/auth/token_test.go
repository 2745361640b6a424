package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pixcheckout/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "pixcheckout",
		ExpirationMinutes: 30,
	}
}

func newTokens(t *testing.T, cfg config.JWTConfig) *Tokens {
	t.Helper()
	tokens, err := NewTokens(cfg)
	require.NoError(t, err)
	return tokens
}

func TestNewTokensValidatesConfig(t *testing.T) {
	for name, mutate := range map[string]func(*config.JWTConfig){
		"secret":     func(c *config.JWTConfig) { c.Secret = "" },
		"issuer":     func(c *config.JWTConfig) { c.Issuer = "" },
		"expiration": func(c *config.JWTConfig) { c.ExpirationMinutes = 0 },
	} {
		cfg := testJWTConfig()
		mutate(&cfg)
		_, err := NewTokens(cfg)
		assert.Error(t, err, name)
	}
}

func TestMintAndVerify(t *testing.T) {
	tokens := newTokens(t, testJWTConfig())
	userID := uuid.New()

	raw, err := tokens.Mint(time.Now(), AccessTokenPayload{UserID: userID, Email: "buyer@example.com"})
	require.NoError(t, err)

	claims, err := tokens.Verify(raw)
	require.NoError(t, err)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.Equal(t, sessionRole, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestMintRequiresUser(t *testing.T) {
	tokens := newTokens(t, testJWTConfig())
	_, err := tokens.Mint(time.Now(), AccessTokenPayload{})
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tokens := newTokens(t, testJWTConfig())
	raw, err := tokens.Mint(time.Now().Add(-2*time.Hour), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = tokens.Verify(raw)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyRejectsOtherIssuerAndSecret(t *testing.T) {
	raw, err := newTokens(t, testJWTConfig()).Mint(time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	otherIssuer := testJWTConfig()
	otherIssuer.Issuer = "someone-else"
	_, err = newTokens(t, otherIssuer).Verify(raw)
	assert.Error(t, err)

	otherSecret := testJWTConfig()
	otherSecret.Secret = "different"
	_, err = newTokens(t, otherSecret).Verify(raw)
	assert.Error(t, err)
}

func TestVerifyAudience(t *testing.T) {
	cfg := testJWTConfig()
	cfg.Audience = "checkout"
	withAudience := newTokens(t, cfg)

	raw, err := withAudience.Mint(time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = withAudience.Verify(raw)
	require.NoError(t, err)

	noAudience, err := newTokens(t, testJWTConfig()).Mint(time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)
	_, err = withAudience.Verify(noAudience)
	assert.Error(t, err)
}

func TestVerifyRequiresUserSubject(t *testing.T) {
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pixcheckout",
			Subject:   "service-account",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newTokens(t, testJWTConfig()).Verify(raw)
	assert.Error(t, err)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pixcheckout",
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTokens(t, testJWTConfig()).Verify(raw)
	assert.Error(t, err)
}
