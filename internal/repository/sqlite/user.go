package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, name, email, username, password_hash, role,
	COALESCE(github_id, 0), avatar_url, created_at, updated_at`

func scanUser(row rowScanner, u *model.User) error {
	return row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.GitHubID, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
}

// nullableGitHubID keeps github_id NULL for password accounts so the
// partial unique index only constrains linked accounts.
func nullableGitHubID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// CreateUser inserts a new account. A duplicate email is reported as
// apperror.ErrConflict with the message "Email already exists".
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, username, password_hash, role,
		                    github_id, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		nullableGitHubID(user.GitHubID),
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflictf("Email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by login email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return &u, nil
}

// UpsertGitHub inserts or refreshes the account linked to user.GitHubID.
//
// The internal id, name, role and creation time of an existing account are
// kept; only the GitHub-owned profile fields are refreshed. On return user
// holds the canonical stored record.
func (db *DB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existing model.User
	err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, user.GitHubID,
	), &existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if err == nil {
		existing.Username = user.Username
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = time.Now()
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
			existing.Username, existing.AvatarURL, existing.UpdatedAt, existing.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
		}
		*user = existing
		return nil
	}

	if user.Role == "" {
		user.Role = model.RoleDeveloper
	}
	return db.CreateUser(ctx, user)
}

// isUniqueViolation matches SQLite's "UNIQUE constraint failed: table.col".
// The modernc driver exposes the extended code only through its own error
// type, and the message is stable across versions.
func isUniqueViolation(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
