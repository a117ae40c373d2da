package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/chatserver/internal/models"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()
	keys, err := LoadKeys(readFixture(t, "private.pem"), readFixture(t, "public.pem"))
	require.NoError(t, err)
	return keys
}

func testUser() models.User {
	hash := "$argon2id$v=19$secret"
	return models.User{
		ID:           1,
		WorkspaceID:  1,
		FullName:     "Eli Shi",
		Email:        "elixy@qq.com",
		PasswordHash: &hash,
		CreatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func requireReason(t *testing.T, err error, want TokenReason) {
	t.Helper()
	var te *TokenError
	require.True(t, errors.As(err, &te), "want TokenError, got %v", err)
	require.Equal(t, want, te.Reason)
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	user := testUser()

	token, err := NewIssuer(keys.Signing).Sign(user)
	require.NoError(t, err)

	got, err := NewVerifier(keys.Verifying).Verify(token)
	require.NoError(t, err)

	require.Equal(t, user.ID, got.ID)
	require.Equal(t, user.WorkspaceID, got.WorkspaceID)
	require.Equal(t, user.Email, got.Email)
	require.Equal(t, user.FullName, got.FullName)
	require.True(t, user.CreatedAt.Equal(got.CreatedAt))
	require.Nil(t, got.PasswordHash)
}

func TestSign_PasswordHashNotInPayload(t *testing.T) {
	t.Parallel()

	token, err := NewIssuer(testKeys(t).Signing).Sign(testUser())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	require.NotContains(t, string(payload), "argon2id")
	require.NotContains(t, string(payload), "password")
	require.Contains(t, string(payload), `"custom"`)
	require.Contains(t, string(payload), `"iss":"chat_server"`)
}

func TestIdentityToClaims(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	c := IdentityToClaims(testUser(), now)

	require.Nil(t, c.Custom.PasswordHash)
	require.Equal(t, TokenIssuer, c.Issuer)
	require.Equal(t, jwt.ClaimStrings{TokenAudience}, c.Audience)
	require.Equal(t, now.Add(604800*time.Second).Unix(), c.ExpiresAt.Unix())
}

func TestVerify_CrossKeyRejected(t *testing.T) {
	t.Parallel()

	token, err := NewIssuer(testKeys(t).Signing).Sign(testUser())
	require.NoError(t, err)

	other, err := LoadVerifyingKey(readFixture(t, "other_public.pem"))
	require.NoError(t, err)

	_, err = NewVerifier(other).Verify(token)
	requireReason(t, err, ReasonBadSignature)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	iss := NewIssuer(keys.Signing)
	iss.now = func() time.Time { return time.Now().Add(-TokenDuration - time.Minute) }

	token, err := iss.Sign(testUser())
	require.NoError(t, err)

	_, err = NewVerifier(keys.Verifying).Verify(token)
	requireReason(t, err, ReasonExpired)
}

func TestVerify_ExpiresAfterSevenDays(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	token, err := NewIssuer(keys.Signing).Sign(testUser())
	require.NoError(t, err)

	v := NewVerifier(keys.Verifying)
	v.now = func() time.Time { return time.Now().Add(6 * 24 * time.Hour) }
	_, err = v.Verify(token)
	require.NoError(t, err)

	v.now = func() time.Time { return time.Now().Add(TokenDuration + time.Minute) }
	_, err = v.Verify(token)
	requireReason(t, err, ReasonExpired)
}

func signRaw(t *testing.T, keys *Keys, mutate func(*Claims)) string {
	t.Helper()
	c := IdentityToClaims(testUser(), time.Now())
	mutate(&c)
	s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, c).SignedString(keys.Signing.key)
	require.NoError(t, err)
	return s
}

func TestVerify_IssuerMismatch(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	token := signRaw(t, keys, func(c *Claims) { c.Issuer = "notify_server" })

	_, err := NewVerifier(keys.Verifying).Verify(token)
	requireReason(t, err, ReasonIssuerMismatch)
}

func TestVerify_AudienceMismatch(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	token := signRaw(t, keys, func(c *Claims) { c.Audience = jwt.ClaimStrings{"chat_mobile"} })

	_, err := NewVerifier(keys.Verifying).Verify(token)
	requireReason(t, err, ReasonAudienceMismatch)
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	token := signRaw(t, keys, func(c *Claims) { c.ExpiresAt = nil })

	_, err := NewVerifier(keys.Verifying).Verify(token)
	requireReason(t, err, ReasonMalformed)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	v := NewVerifier(testKeys(t).Verifying)
	for _, token := range []string{"bad-token", "", "a.b.c"} {
		_, err := v.Verify(token)
		requireReason(t, err, ReasonMalformed)
	}
}

func TestVerify_RejectsHMAC(t *testing.T) {
	t.Parallel()

	keys := testKeys(t)
	c := IdentityToClaims(testUser(), time.Now())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("shared"))
	require.NoError(t, err)

	_, err = NewVerifier(keys.Verifying).Verify(token)
	requireReason(t, err, ReasonBadSignature)
}

func TestTokenError_MessageOnlyCarriesReason(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier(testKeys(t).Verifying).Verify("bad-token")
	require.EqualError(t, err, "verify token failed: malformed token")
}
