package ui

type Page int

const (
	PageLogin Page = iota
	PageMain
)

func (p Page) String() string {
	if p == PageMain {
		return "main"
	}
	return "login"
}

type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

// SnippetRow is one entry of the snippet list. Active marks the selected
// snippet.
type SnippetRow struct {
	ID                  int64
	Title               string
	Language            string
	ActiveVersionNumber int
	Active              bool
}

// VersionRow is one entry of the version panel. The active version has
// CanDelete false.
type VersionRow struct {
	ID            int64
	VersionNumber int
	CommitMessage string
	CanRestore    bool
	CanDelete     bool
}

type Editor struct {
	Title       string
	Description string
	Content     string
}

// View is a snapshot of everything the terminal shows.
type View struct {
	Page     Page
	AuthMode AuthMode
	Username string

	Snippets      []SnippetRow
	SelectedID    int64
	Editor        Editor
	DeleteVisible bool
	Versions      []VersionRow

	// FieldErrors holds per-field registration messages keyed by
	// name, email, username and password. RegisterEnabled is false while
	// any field is invalid.
	FieldErrors     map[string]string
	RegisterEnabled bool
}
