package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/auth"
	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/repository"
)

// GitHubVerifier resolves a GitHub access token to its owner.
// *auth.GitHubVerifier satisfies it; tests use a fake.
type GitHubVerifier interface {
	Verify(ctx context.Context, accessToken string) (*auth.GitHubUser, error)
}

// RegisterInput is the account data submitted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Username string
	Password string
	Role     model.Role
}

// AuthResult bundles the account and its freshly issued session token.
type AuthResult struct {
	User  *model.User
	Token string
}

// AuthService implements registration and the two login paths.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	github    GitHubVerifier
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	github GitHubVerifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		github:    github,
		logger:    logger,
	}
}

// Register creates a password account and logs it in. The role defaults to
// DEVELOPER; a duplicate email is a conflict ("Email already exists").
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)

	if in.Email == "" {
		return nil, apperror.ValidationFailed("email", "Email is required")
	}
	if in.Username == "" {
		return nil, apperror.ValidationFailed("username", "Username is required")
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "Password is required")
	}
	if in.Role == "" {
		in.Role = model.RoleDeveloper
	}
	if !in.Role.Valid() {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("Unknown role %q", in.Role))
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflictf("Email already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return s.issue(user)
}

// Login checks email and password. Unknown email and wrong password give
// the same error so accounts cannot be probed.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "Email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: loading user: %w", err)
	}

	// GitHub-only accounts have no hash.
	if user.PasswordHash == "" {
		return nil, apperror.InvalidCredentials()
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issue(user)
}

// LoginGitHub exchanges a GitHub access token for a session, creating the
// account on first sign-in.
func (s *AuthService) LoginGitHub(ctx context.Context, accessToken string) (*AuthResult, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, apperror.ValidationFailed("accessToken", "GitHub access token is required")
	}

	gh, err := s.github.Verify(ctx, accessToken)
	if err != nil {
		s.logger.Warn("GitHub token rejected", slog.String("error", err.Error()))
		return nil, apperror.InvalidCredentials()
	}

	email := gh.Email
	if email == "" {
		// Users may hide their address; the noreply alias is stable per account.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, gh.Login)
	}
	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	user := &model.User{
		Name:      name,
		Email:     strings.ToLower(email),
		Username:  gh.Login,
		GitHubID:  gh.ID,
		AvatarURL: gh.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", gh.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("user_id", user.ID),
		slog.String("login", gh.Login),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
