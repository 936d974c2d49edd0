// Package repository declares the storage interfaces the service layer
// depends on. internal/repository/sqlite implements all of them on one DB.
package repository

import (
	"context"

	"github.com/sakif/codemaster/internal/model"
)

type SnippetRepository interface {
	// CreateWithVersion inserts the snippet and its first version atomically.
	CreateWithVersion(ctx context.Context, snippet *model.Snippet, version *model.Version, metrics *model.Metrics, audit *model.AuditEntry) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Snippet, error)
	// AppendVersion updates the snippet row and inserts the next version in
	// one transaction. It is used by both update and rollback.
	AppendVersion(ctx context.Context, snippet *model.Snippet, version *model.Version, metrics *model.Metrics, audit *model.AuditEntry) error
	Delete(ctx context.Context, id int64, audit *model.AuditEntry) error
}

type VersionRepository interface {
	ListVersions(ctx context.Context, snippetID int64) ([]model.Version, error)
	GetVersion(ctx context.Context, snippetID int64, number int) (*model.Version, error)
	GetVersionByID(ctx context.Context, id int64) (*model.Version, error)
	DeleteVersion(ctx context.Context, id int64, audit *model.AuditEntry) error
	GetMetrics(ctx context.Context, versionID int64) (*model.Metrics, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub creates or refreshes the account linked to user.GitHubID.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type AuditRepository interface {
	ListAudit(ctx context.Context, entityName string, entityID int64) ([]model.AuditEntry, error)
}
