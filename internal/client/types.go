package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// SnippetID is a snippet identifier. It decodes from either a JSON number
// or a numeric string, so comparisons hold whichever form a server sends.
type SnippetID int64

func (id *SnippetID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("client: invalid snippet id %s", b)
	}
	*id = SnippetID(n)
	return nil
}

func (id SnippetID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Snippet is the snippet view returned by the API.
type Snippet struct {
	ID                  SnippetID `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Language            string    `json:"language"`
	CurrentContent      string    `json:"currentContent"`
	ActiveVersionNumber int       `json:"activeVersionNumber"`
	AuthorName          string    `json:"authorName"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Version is one entry of a snippet's history.
type Version struct {
	ID            int64     `json:"id"`
	VersionNumber int       `json:"versionNumber"`
	Content       string    `json:"content"`
	CommitMessage string    `json:"commitMessage"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SnippetInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
	Language    string `json:"language"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// AuthResult is returned by login, registration and GitHub sign-in.
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Diff struct {
	Original string   `json:"original"`
	Revised  string   `json:"revised"`
	Deltas   []string `json:"deltas"`
	Unified  string   `json:"unified"`
}

type Metrics struct {
	LOC                  int `json:"loc"`
	KeywordCount         int `json:"keywordCount"`
	CyclomaticComplexity int `json:"cyclomaticComplexity"`
}
