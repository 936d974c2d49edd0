// Package service holds the business rules of the API server: versioning,
// rollback, ownership and authentication. It knows nothing about HTTP;
// handlers translate its apperror kinds into status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/compiler"
	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/repository"
)

const (
	MaxTitleLength   = 100
	MaxContentLength = 100000
	DefaultLanguage  = "Java"

	accessDenied     = "Access Denied: You do not own this snippet."
	activeVersionMsg = "Cannot delete the active version. Rollback to another version first."
)

// SnippetInput carries the editable fields of a snippet.
type SnippetInput struct {
	Title       string
	Description string
	Content     string
	Language    string
}

// SnippetService implements snippet CRUD and version history.
//
// Every write appends a version; nothing rewrites history. The snippet's
// ActiveVersionNumber always points at the newest version and its
// CurrentContent mirrors that version's content.
type SnippetService struct {
	snippets repository.SnippetRepository
	versions repository.VersionRepository
	checker  compiler.Checker
	logger   *slog.Logger
}

func NewSnippetService(
	snippets repository.SnippetRepository,
	versions repository.VersionRepository,
	checker compiler.Checker,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		versions: versions,
		checker:  checker,
		logger:   logger,
	}
}

func validateInput(in *SnippetInput, requireTitle bool) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Language = strings.TrimSpace(in.Language)

	if requireTitle && in.Title == "" {
		return apperror.ValidationFailed("title", "Title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("Title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(in.Content) == "" {
		return apperror.ValidationFailed("content", "Content is required")
	}
	if len(in.Content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("Content must be %d characters or less", MaxContentLength))
	}
	return nil
}

// Create stores a new snippet with version 1, "Initial version".
func (s *SnippetService) Create(ctx context.Context, user *model.User, in SnippetInput) (*model.Snippet, error) {
	if err := validateInput(&in, true); err != nil {
		return nil, err
	}
	if in.Language == "" {
		in.Language = DefaultLanguage
	}

	snippet := &model.Snippet{
		Title:               in.Title,
		Description:         in.Description,
		CurrentContent:      in.Content,
		Language:            in.Language,
		AuthorID:            user.ID,
		AuthorName:          user.Username,
		ActiveVersionNumber: 1,
	}
	version := &model.Version{
		VersionNumber: 1,
		Content:       in.Content,
		CommitMessage: "Initial version",
	}
	metrics := ComputeMetrics(in.Content)

	if err := s.snippets.CreateWithVersion(ctx, snippet, version, &metrics, s.audit(model.AuditVersionCreated, model.AuditEntitySnippet, 0, user)); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.String("author", user.Username),
	)
	return snippet, nil
}

// Get returns a snippet owned by user.
func (s *SnippetService) Get(ctx context.Context, user *model.User, id int64) (*model.Snippet, error) {
	return s.owned(ctx, user, id)
}

// List returns all snippets owned by user.
func (s *SnippetService) List(ctx context.Context, user *model.User) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListByAuthor(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update appends version active+1, "Updated version N". An empty title or
// description keeps the stored value.
func (s *SnippetService) Update(ctx context.Context, user *model.User, id int64, in SnippetInput) (*model.Snippet, error) {
	if err := validateInput(&in, false); err != nil {
		return nil, err
	}

	snippet, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		snippet.Title = in.Title
	}
	if in.Description != "" {
		snippet.Description = in.Description
	}
	if in.Language != "" {
		snippet.Language = in.Language
	}

	next := snippet.ActiveVersionNumber + 1
	if err := s.appendVersion(ctx, user, snippet, in.Content, next, "Updated version "+strconv.Itoa(next)); err != nil {
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.Int64("id", snippet.ID),
		slog.Int("version", next),
	)
	return snippet, nil
}

// Rollback copies version number's content into a new version active+1,
// "Rolled back to version N". The old version itself is left untouched.
func (s *SnippetService) Rollback(ctx context.Context, user *model.User, id int64, number int) (*model.Snippet, error) {
	snippet, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	target, err := s.versions.GetVersion(ctx, id, number)
	if err != nil {
		return nil, err
	}

	next := snippet.ActiveVersionNumber + 1
	if err := s.appendVersion(ctx, user, snippet, target.Content, next, "Rolled back to version "+strconv.Itoa(number)); err != nil {
		return nil, fmt.Errorf("rolling back snippet: %w", err)
	}

	s.logger.Info("snippet rolled back",
		slog.Int64("id", snippet.ID),
		slog.Int("to", number),
		slog.Int("version", next),
	)
	return snippet, nil
}

func (s *SnippetService) appendVersion(ctx context.Context, user *model.User, snippet *model.Snippet, content string, number int, message string) error {
	snippet.CurrentContent = content
	snippet.ActiveVersionNumber = number

	version := &model.Version{
		VersionNumber: number,
		Content:       content,
		CommitMessage: message,
	}
	metrics := ComputeMetrics(content)

	return s.snippets.AppendVersion(ctx, snippet, version, &metrics,
		s.audit(model.AuditVersionCreated, model.AuditEntitySnippet, snippet.ID, user))
}

// Delete removes a snippet and its whole history.
func (s *SnippetService) Delete(ctx context.Context, user *model.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}

	if err := s.snippets.Delete(ctx, id, s.audit(model.AuditSnippetDeleted, model.AuditEntitySnippet, id, user)); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))
	return nil
}

// Versions lists a snippet's versions, newest first.
func (s *SnippetService) Versions(ctx context.Context, user *model.User, id int64) ([]model.Version, error) {
	if _, err := s.owned(ctx, user, id); err != nil {
		return nil, err
	}

	versions, err := s.versions.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return versions, nil
}

// DeleteVersionByNumber removes version number of snippet id. The active
// version cannot be deleted.
func (s *SnippetService) DeleteVersionByNumber(ctx context.Context, user *model.User, id int64, number int) error {
	snippet, err := s.owned(ctx, user, id)
	if err != nil {
		return err
	}

	version, err := s.versions.GetVersion(ctx, id, number)
	if err != nil {
		return err
	}

	return s.deleteVersion(ctx, user, snippet, version, model.AuditVersionDeleted)
}

// DeleteVersionByID removes a version addressed by its global id.
func (s *SnippetService) DeleteVersionByID(ctx context.Context, user *model.User, versionID int64) error {
	version, err := s.versions.GetVersionByID(ctx, versionID)
	if err != nil {
		return err
	}

	snippet, err := s.owned(ctx, user, version.SnippetID)
	if err != nil {
		return err
	}

	return s.deleteVersion(ctx, user, snippet, version, model.AuditVersionDeletedByID)
}

func (s *SnippetService) deleteVersion(ctx context.Context, user *model.User, snippet *model.Snippet, version *model.Version, action string) error {
	if version.VersionNumber == snippet.ActiveVersionNumber {
		return apperror.Conflictf(activeVersionMsg)
	}

	if err := s.versions.DeleteVersion(ctx, version.ID, s.audit(action, model.AuditEntityVersion, version.ID, user)); err != nil {
		return err
	}

	s.logger.Info("version deleted",
		slog.Int64("snippet_id", snippet.ID),
		slog.Int("version", version.VersionNumber),
	)
	return nil
}

// Diff compares versions v1 and v2 of a snippet.
func (s *SnippetService) Diff(ctx context.Context, user *model.User, id int64, v1, v2 int) (*model.DiffResult, error) {
	if _, err := s.owned(ctx, user, id); err != nil {
		return nil, err
	}

	from, err := s.versions.GetVersion(ctx, id, v1)
	if err != nil {
		return nil, err
	}
	to, err := s.versions.GetVersion(ctx, id, v2)
	if err != nil {
		return nil, err
	}

	return Diff(from.Content, to.Content, v1, v2)
}

// Metrics returns the stored metrics of version number.
func (s *SnippetService) Metrics(ctx context.Context, user *model.User, id int64, number int) (*model.Metrics, error) {
	if _, err := s.owned(ctx, user, id); err != nil {
		return nil, err
	}

	version, err := s.versions.GetVersion(ctx, id, number)
	if err != nil {
		return nil, err
	}
	return s.versions.GetMetrics(ctx, version.ID)
}

// Validate compiles code and returns its error diagnostics. An empty slice
// means the code is syntactically valid. Blank code is compiled like any
// other input and comes back clean.
func (s *SnippetService) Validate(ctx context.Context, code string) ([]string, error) {
	if len(code) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("Content must be %d characters or less", MaxContentLength))
	}

	diags, err := s.checker.Check(ctx, code)
	if err != nil {
		s.logger.Error("syntax check failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("checking syntax: %w", err)
	}
	return diags, nil
}

// owned loads a snippet and checks that user is its author.
func (s *SnippetService) owned(ctx context.Context, user *model.User, id int64) (*model.Snippet, error) {
	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.AuthorID != user.ID {
		s.logger.Warn("ownership check failed",
			slog.Int64("snippet_id", id),
			slog.String("user_id", user.ID),
		)
		return nil, apperror.Forbidden(accessDenied)
	}
	return snippet, nil
}

func (s *SnippetService) audit(action, entity string, entityID int64, user *model.User) *model.AuditEntry {
	return &model.AuditEntry{
		Action:     action,
		EntityName: entity,
		EntityID:   entityID,
		PerformBy:  user.Email,
	}
}
