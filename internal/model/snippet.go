// Package model defines the data structures used throughout the server.
// The `json:"..."` tags are the wire names of the REST contract, so they use
// the camelCase spelling the client expects (currentContent,
// activeVersionNumber, versionNumber).
package model

import "time"

// Snippet is a named piece of source code owned by one user.
//
// CurrentContent always mirrors the content of the active version.
// ActiveVersionNumber is the number of that version; every update or
// rollback appends a new version and moves the pointer forward, so history
// is never rewritten.
type Snippet struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	CurrentContent      string    `json:"currentContent"`
	Language            string    `json:"language"`
	AuthorID            string    `json:"-"`
	AuthorName          string    `json:"authorName"`
	ActiveVersionNumber int       `json:"activeVersionNumber"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Version is an immutable content record of a snippet.
// ID is global; VersionNumber is the per-snippet sequence number.
type Version struct {
	ID            int64     `json:"id"`
	SnippetID     int64     `json:"-"`
	VersionNumber int       `json:"versionNumber"`
	Content       string    `json:"content"`
	CommitMessage string    `json:"commitMessage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Metrics are computed once per version when the version is written.
type Metrics struct {
	VersionID            int64 `json:"versionId"`
	LOC                  int   `json:"loc"`
	KeywordCount         int   `json:"keywordCount"`
	CyclomaticComplexity int   `json:"cyclomaticComplexity"`
}

// AuditEntry records a mutating action for later inspection.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityName string    `json:"entityName"`
	EntityID   int64     `json:"entityId"`
	PerformBy  string    `json:"performBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Audit actions and entity names.
const (
	AuditEntitySnippet = "CodeSnippet"
	AuditEntityVersion = "CodeVersion"

	AuditVersionCreated     = "VERSION_CREATED"
	AuditVersionDeleted     = "VERSION_DELETED"
	AuditVersionDeletedByID = "VERSION_DELETED_BY_ID"
	AuditSnippetDeleted     = "SNIPPET_DELETED"
)

// DiffResult is the line diff between two versions of a snippet.
type DiffResult struct {
	Original string   `json:"original"`
	Revised  string   `json:"revised"`
	Deltas   []string `json:"deltas"`
	Unified  string   `json:"unified"`
}
