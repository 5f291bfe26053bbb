package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neotogether/internal/domain"
)

func newUserFixture(t *testing.T) (*testEnv, domain.UserService, *fakeEmailService) {
	t.Helper()
	env := newTestEnv(
		&domain.Interest{ID: 1, Name: "hiking", Category: "outdoors"},
		&domain.Interest{ID: 2, Name: "chess", Category: "games"},
	)
	emails := &fakeEmailService{}
	svc := NewUserService(env.users, env.taxonomy, fakeHasher{}, fakeTokenIssuer{}, time.Hour, emails, "https://app.example.com")
	return env, svc, emails
}

func TestSignup_ReturnsPrivateKeyOnce(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, "alice", 1990, "female", []int64{1, 2})
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "Alice", res.User.FirstName)
	assert.NotEmpty(t, res.PrivateKey)
	assert.True(t, res.User.IsAvailable)
	assert.Equal(t, domain.DefaultMinGroupSize, res.User.Preferences.MinGroupSize)
	assert.Equal(t, domain.DefaultMaxGroupSize, res.User.Preferences.MaxGroupSize)
	require.Len(t, res.User.Interests, 2)

	// The stored record carries the hash, never the plaintext key.
	stored, err := svc.GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, res.PrivateKey, stored.PrivateKeyHash)
}

func TestSignup_RejectsUnapprovedName(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	_, err := svc.Signup(context.Background(), "xx$!", 1990, "female", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSignup_RejectsBadBirthYear(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	_, err := svc.Signup(context.Background(), "alice", 2020, "female", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSignup_RejectsUnknownInterest(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	_, err := svc.Signup(context.Background(), "alice", 1990, "female", []int64{99})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_WithPrivateKey(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, "Alice", 1990, "female", nil)
	require.NoError(t, err)

	token, user, err := svc.Login(ctx, "alice", res.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.Equal(t, "jwt:"+res.User.ID, token)

	_, _, err = svc.Login(ctx, "alice", "wrong-key")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_DisambiguatesSameName(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	first, err := svc.Signup(ctx, "alice", 1990, "female", nil)
	require.NoError(t, err)
	second, err := svc.Signup(ctx, "alice", 1992, "female", nil)
	require.NoError(t, err)

	// Two accounts share the name; the key picks the right one.
	_, user, err := svc.Login(ctx, "alice", second.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, second.User.ID, user.ID)
	_, user, err = svc.Login(ctx, "alice", first.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, user.ID)
}

func TestSignupWithEmail_SendsWelcomeWithMagicLink(t *testing.T) {
	_, svc, emails := newUserFixture(t)
	ctx := context.Background()

	err := svc.SignupWithEmail(ctx, "Alice@Example.com", "alice", 1990, "female", []int64{1})
	require.NoError(t, err)
	require.Len(t, emails.welcome, 1)
	assert.Equal(t, "alice@example.com", emails.welcome[0].Email)
	assert.Contains(t, emails.welcome[0].MagicLink, "https://app.example.com/auth/verify?token=")

	// The address is taken now.
	err = svc.SignupWithEmail(ctx, "alice@example.com", "bruno", 1988, "male", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestSignupWithEmail_RejectsBadAddress(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	err := svc.SignupWithEmail(context.Background(), "not-an-email", "alice", 1990, "female", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequestMagicLink_SilentForUnknownEmail(t *testing.T) {
	_, svc, emails := newUserFixture(t)

	err := svc.RequestMagicLink(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Empty(t, emails.magic)
}

func TestVerifyMagicLink_SingleUse(t *testing.T) {
	_, svc, emails := newUserFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.SignupWithEmail(ctx, "alice@example.com", "alice", 1990, "female", nil))
	require.NoError(t, svc.RequestMagicLink(ctx, "alice@example.com"))
	require.Len(t, emails.magic, 1)

	link := emails.magic[0].MagicLink
	token := link[len("https://app.example.com/auth/verify?token="):]

	jwt, user, err := svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "jwt:"+user.ID, jwt)

	// The link is consumed.
	_, _, err = svc.VerifyMagicLink(ctx, token)
	assert.ErrorIs(t, err, domain.ErrInvalidMagicToken)
}

func TestVerifyMagicLink_RejectsGarbage(t *testing.T) {
	_, svc, _ := newUserFixture(t)

	_, _, err := svc.VerifyMagicLink(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidMagicToken)
	_, _, err = svc.VerifyMagicLink(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrInvalidMagicToken)
}

func TestUpdatePreferences_Validation(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, "alice", 1990, "female", nil)
	require.NoError(t, err)

	cases := []struct {
		name  string
		prefs domain.MatchPreferences
	}{
		{"min age above max", domain.MatchPreferences{MinAge: intPtr(40), MaxAge: intPtr(30), MinGroupSize: 2, MaxGroupSize: 10}},
		{"group minimum below two", domain.MatchPreferences{MinGroupSize: 1, MaxGroupSize: 10}},
		{"group maximum below minimum", domain.MatchPreferences{MinGroupSize: 5, MaxGroupSize: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdatePreferences(ctx, res.User.ID, tc.prefs)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	updated, err := svc.UpdatePreferences(ctx, res.User.ID, domain.MatchPreferences{
		MinAge:       intPtr(25),
		MaxAge:       intPtr(35),
		Genders:      []string{"male"},
		MinGroupSize: 3,
		MaxGroupSize: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Preferences.MinGroupSize)
	assert.Equal(t, []string{"male"}, updated.Preferences.Genders)
}

func TestToggleAvailability(t *testing.T) {
	_, svc, _ := newUserFixture(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, "alice", 1990, "female", nil)
	require.NoError(t, err)
	require.True(t, res.User.IsAvailable)

	got, err := svc.ToggleAvailability(ctx, res.User.ID)
	require.NoError(t, err)
	assert.False(t, got)
	got, err = svc.ToggleAvailability(ctx, res.User.ID)
	require.NoError(t, err)
	assert.True(t, got)
}
