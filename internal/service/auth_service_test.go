package service

import (
	"context"
	"testing"
	"time"

	"pulseapp/pulse/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "unit-test-secret"

func newAuthFixture(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	return NewAuthService(repo, testJWTSecret, time.Hour), repo
}

func TestRegister_HashesPasswordAndHidesHash(t *testing.T) {
	svc, repo := newAuthFixture(t)

	user, err := svc.Register(context.Background(), "Alex", "alex@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.False(t, user.ID.IsZero())
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	stored, err := repo.GetByEmail(context.Background(), "alex@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
	assert.NotEqual(t, "correct horse battery", stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), "Alex", "alex@example.com", "password-one")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Other", "alex@example.com", "password-two")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registered, err := svc.Register(context.Background(), "Alex", "alex@example.com", "correct horse battery")
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "alex@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, registered.ID.Hex(), claims.UserID)
	assert.Equal(t, "pulse", claims.Issuer)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.Register(context.Background(), "Alex", "alex@example.com", "correct horse battery")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alex@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// Unknown accounts fail identically, no user enumeration.
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestUpdateProfile_PersistsOnboardingAnswers(t *testing.T) {
	svc, _ := newAuthFixture(t)
	registered, err := svc.Register(context.Background(), "Alex", "alex@example.com", "correct horse battery")
	require.NoError(t, err)

	weight := 82.5
	updated, err := svc.UpdateProfile(context.Background(), registered.ID, domain.Profile{
		Goal:        "build_muscle",
		Experience:  "intermediate",
		Equipment:   []string{"dumbbells"},
		DaysPerWeek: 4,
		WeightKg:    &weight,
	})
	require.NoError(t, err)
	assert.Equal(t, "build_muscle", updated.Profile.Goal)
	assert.Equal(t, 4, updated.Profile.DaysPerWeek)

	fetched, err := svc.GetUser(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dumbbells"}, fetched.Profile.Equipment)
	require.NotNil(t, fetched.Profile.WeightKg)
	assert.Equal(t, 82.5, *fetched.Profile.WeightKg)
}
