package model

import "time"

// Role is the coarse permission level chosen at registration.
type Role string

const (
	RoleDeveloper Role = "DEVELOPER"
	RoleReviewer  Role = "REVIEWER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDeveloper, RoleReviewer, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account.
//
// Users created through email registration carry a bcrypt PasswordHash.
// Users created through GitHub sign-in have GitHubID set and an empty hash,
// so password login is impossible for them until they register a password.
//
// Username is the display name returned to clients after login; Email is the
// login identifier.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Role         Role      `json:"role"      db:"role"`
	GitHubID     int64     `json:"githubId"  db:"github_id"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
