package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/auth"
	"github.com/sakif/codemaster/internal/model"
)

func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)

	gh := fakeGitHub{
		token: "gho_good",
		user:  auth.GitHubUser{ID: 42, Login: "octocat", AvatarURL: "https://a/42.png"},
	}
	return NewAuthService(repo, ts, auth.NewPasswordServiceForTest(4), gh, discardLogger()), ts
}

func register(t *testing.T, svc *AuthService, email string) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    email,
		Username: "alice",
		Password: "pw123456",
	})
	require.NoError(t, err)
	return res
}

func TestRegister_DefaultsRoleAndIssuesToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc, ts := newTestAuthService(t, repo)

	res := register(t, svc, "Alice@Example.com ")

	assert.Equal(t, model.RoleDeveloper, res.User.Role)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, "pw123456", res.User.PasswordHash)

	subject, err := ts.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, subject)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	register(t, svc, "a@b.com")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "a@b.com", Username: "other", Password: "pw123456",
	})

	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.EqualError(t, err, "Email already exists")
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	cases := map[string]RegisterInput{
		"no email":    {Username: "u", Password: "pw123456"},
		"no username": {Email: "a@b.com", Password: "pw123456"},
		"no password": {Email: "a@b.com", Username: "u"},
		"bad role":    {Email: "a@b.com", Username: "u", Password: "pw123456", Role: "OWNER"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	registered := register(t, svc, "a@b.com")

	res, err := svc.Login(context.Background(), "a@b.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)
	assert.Equal(t, "alice", res.User.Username)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_Failures(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	register(t, svc, "a@b.com")
	// a GitHub-only account has no password hash
	require.NoError(t, repo.UpsertGitHub(context.Background(), &model.User{Email: "gh@b.com", Username: "gh", GitHubID: 7}))

	cases := []struct {
		name, email, password string
		want                  error
	}{
		{"wrong password", "a@b.com", "nope-nope", apperror.ErrCredentials},
		{"unknown email", "x@b.com", "pw123456", apperror.ErrCredentials},
		{"github account", "gh@b.com", "pw123456", apperror.ErrCredentials},
		{"empty password", "a@b.com", "", apperror.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginGitHub(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	first, err := svc.LoginGitHub(context.Background(), "gho_good")
	require.NoError(t, err)
	assert.Equal(t, "octocat", first.User.Username)
	assert.Equal(t, "42+octocat@users.noreply.github.com", first.User.Email)
	assert.Equal(t, model.RoleDeveloper, first.User.Role)

	second, err := svc.LoginGitHub(context.Background(), "gho_good")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = svc.LoginGitHub(context.Background(), "gho_bad")
	assert.ErrorIs(t, err, apperror.ErrCredentials)

	_, err = svc.LoginGitHub(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
