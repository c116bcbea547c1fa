package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/landlordheaven/heaven-backend/pkg/config"
)

func testSupabaseConfig() config.SupabaseConfig {
	return config.SupabaseConfig{
		URL:         "https://project.supabase.co",
		JWTSecret:   "secret",
		Audience:    "authenticated",
		AdminEmails: []string{"ops@landlordheaven.co.uk"},
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testSupabaseConfig()
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, now, 30*time.Minute, AccessTokenPayload{
		UserID:  userID,
		Email:   "landlord@example.com",
		AppRole: RoleAdmin,
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)

	gotID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, userID, gotID)
	require.Equal(t, "landlord@example.com", claims.Email)
	require.Equal(t, "authenticated", claims.Role)
	require.True(t, claims.HasAdminRole())
	require.Equal(t, "https://project.supabase.co/auth/v1", claims.Issuer)
	require.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testSupabaseConfig()
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	cfg.JWTSecret = "other"
	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testSupabaseConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-2*time.Hour), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessTokenWrongAudience(t *testing.T) {
	cfg := testSupabaseConfig()
	token, err := MintAccessToken(cfg, time.Now(), time.Minute, AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	cfg.Audience = "service_role"
	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestIsAdmin(t *testing.T) {
	cfg := testSupabaseConfig()

	require.True(t, IsAdmin(cfg, &AccessTokenClaims{AppMetadata: AppMetadata{Role: RoleAdmin}}))
	require.True(t, IsAdmin(cfg, &AccessTokenClaims{Email: "OPS@landlordheaven.co.uk"}))
	require.False(t, IsAdmin(cfg, &AccessTokenClaims{Email: "landlord@example.com"}))
	require.False(t, IsAdmin(cfg, nil))
}
