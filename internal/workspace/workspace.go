// Package workspace is the terminal client's controller. It owns the
// application state, turns user commands into gateway calls, and reports
// outcomes through the notifier and the modal.
//
// All state lives in one mutex-guarded State. Network calls never run with
// the lock held, and every method that calls the API takes a context.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/session"
	"github.com/sakif/codemaster/internal/ui"
)

// DefaultLanguage is sent with every saved snippet unless configured
// otherwise.
const DefaultLanguage = "Java"

var (
	ErrRollbackRejected = errors.New("workspace: rollback rejected")
	ErrMissingFields    = errors.New("workspace: required fields missing")
	ErrInvalidForm      = errors.New("workspace: registration form invalid")
	ErrNoSelection      = errors.New("workspace: no snippet selected")
)

// API is the part of *client.Client the controller uses.
type API interface {
	SetToken(token string)
	OnAuthExpired(fn func(ctx context.Context))

	Login(ctx context.Context, email, password string) (*client.AuthResult, error)
	Register(ctx context.Context, in client.RegisterInput) (*client.AuthResult, error)
	LoginGitHub(ctx context.Context, accessToken string) (*client.AuthResult, error)

	ListSnippets(ctx context.Context) ([]client.Snippet, error)
	GetSnippet(ctx context.Context, id client.SnippetID) (*client.Snippet, error)
	CreateSnippet(ctx context.Context, in client.SnippetInput) (*client.Snippet, error)
	UpdateSnippet(ctx context.Context, id client.SnippetID, in client.SnippetInput) (*client.Snippet, error)
	DeleteSnippet(ctx context.Context, id client.SnippetID) error
	Validate(ctx context.Context, content string) ([]string, error)

	Versions(ctx context.Context, id client.SnippetID) ([]client.Version, error)
	Rollback(ctx context.Context, id client.SnippetID, n int) (*client.Snippet, error)
	DeleteVersion(ctx context.Context, versionID int64) error
	Diff(ctx context.Context, id client.SnippetID, v1, v2 int) (*client.Diff, error)
	Metrics(ctx context.Context, id client.SnippetID, n int) (*client.Metrics, error)
}

var _ API = (*client.Client)(nil)

// DeviceAuthorizer runs an OAuth device flow; *client.DeviceFlow is one.
type DeviceAuthorizer interface {
	Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error)
	Wait(ctx context.Context, da *oauth2.DeviceAuthResponse) (string, error)
}

var _ DeviceAuthorizer = (*client.DeviceFlow)(nil)

// State is everything the controller knows. It is only touched with
// Controller.mu held.
type State struct {
	Session  session.Session
	Page     ui.Page
	AuthMode ui.AuthMode

	Selected client.SnippetID
	// selectGen increases with every change of selection so a detail
	// response can tell whether it is still wanted.
	selectGen uint64

	Editor        ui.Editor
	DeleteVisible bool
	Snippets      []client.Snippet
	Versions      []client.Version
	ActiveVersion int

	Register        RegisterForm
	FieldErrors     map[string]string
	RegisterEnabled bool
}

type Options struct {
	// Language is sent with saved snippets. Empty means DefaultLanguage.
	Language string
	Logger   *slog.Logger
}

type Controller struct {
	api      API
	store    session.Store
	notes    *ui.Notifier
	modal    *ui.Modal
	logger   *slog.Logger
	language string

	mu    sync.Mutex
	state State
}

// New wires a controller and registers its auth-expiry handler on api.
func New(api API, store session.Store, notes *ui.Notifier, modal *ui.Modal, opts Options) *Controller {
	c := &Controller{
		api:      api,
		store:    store,
		notes:    notes,
		modal:    modal,
		logger:   opts.Logger,
		language: opts.Language,
		state:    State{Page: ui.PageLogin},
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.language == "" {
		c.language = DefaultLanguage
	}
	api.OnAuthExpired(c.handleAuthExpired)
	return c
}

func (c *Controller) Notifier() *ui.Notifier { return c.notes }
func (c *Controller) Modal() *ui.Modal       { return c.modal }

// Start is the auth guard run at program start: without a stored token the
// login page is shown; with one the main page is shown and the snippet list
// fetched.
func (c *Controller) Start(ctx context.Context) error {
	sess, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Warn("failed to load session", slog.String("error", err.Error()))
		sess = session.Session{}
	}

	if !sess.Active() {
		c.mu.Lock()
		c.resetLocked()
		c.mu.Unlock()
		c.api.SetToken("")
		return nil
	}

	c.api.SetToken(sess.Token)
	c.mu.Lock()
	c.state.Session = sess
	c.state.Page = ui.PageMain
	c.mu.Unlock()

	return c.LoadSnippets(ctx)
}

// View returns a snapshot for rendering.
func (c *Controller) View() ui.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := &c.state
	v := ui.View{
		Page:            st.Page,
		AuthMode:        st.AuthMode,
		Username:        st.Session.Username,
		SelectedID:      int64(st.Selected),
		Editor:          st.Editor,
		DeleteVisible:   st.DeleteVisible,
		RegisterEnabled: st.RegisterEnabled,
	}
	for _, s := range st.Snippets {
		v.Snippets = append(v.Snippets, ui.SnippetRow{
			ID:                  int64(s.ID),
			Title:               s.Title,
			Language:            s.Language,
			ActiveVersionNumber: s.ActiveVersionNumber,
			Active:              st.Selected != 0 && s.ID == st.Selected,
		})
	}
	for _, ver := range st.Versions {
		v.Versions = append(v.Versions, ui.VersionRow{
			ID:            ver.ID,
			VersionNumber: ver.VersionNumber,
			CommitMessage: ver.CommitMessage,
			CanRestore:    true,
			CanDelete:     ver.VersionNumber != st.ActiveVersion,
		})
	}
	if len(st.FieldErrors) > 0 {
		v.FieldErrors = make(map[string]string, len(st.FieldErrors))
		for k, msg := range st.FieldErrors {
			v.FieldErrors[k] = msg
		}
	}
	return v
}

// Selected returns the selected snippet id, zero when none.
func (c *Controller) Selected() client.SnippetID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Selected
}

func (c *Controller) Session() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Session
}

// Confirm runs the open modal's confirm action. Failures the action did not
// already report become an error notification.
func (c *Controller) Confirm(ctx context.Context) error {
	err := c.modal.Confirm(ctx)
	if err != nil && !isReported(err) {
		c.logger.Debug("confirm action failed", slog.String("error", err.Error()))
		c.notes.Error("Action failed")
	}
	return err
}

// Cancel closes the modal without running its action.
func (c *Controller) Cancel() {
	c.modal.Close()
}

// handleAuthExpired runs from the gateway when the server reports the
// session unusable.
func (c *Controller) handleAuthExpired(ctx context.Context) {
	if err := c.store.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Warn("failed to clear session", slog.String("error", err.Error()))
	}
	c.api.SetToken("")

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.modal.Close()
	c.notes.Error("Session expired. Please login again.")
}

// resetLocked returns to the logged-out login page.
func (c *Controller) resetLocked() {
	gen := c.state.selectGen + 1
	c.state = State{Page: ui.PageLogin, AuthMode: ui.ModeLogin, selectGen: gen}
}

// reportedError marks an error the user has already been told about.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// fail shows message for a failed call and returns err marked as reported.
// Auth expiry is announced by handleAuthExpired, so nothing more is shown
// for it.
func (c *Controller) fail(err error, message string) error {
	if errors.Is(err, client.ErrAuthExpired) {
		return reportedError{err}
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		c.logger.Debug("request failed", slog.String("error", err.Error()))
	}
	c.notes.Error(message)
	return reportedError{err}
}

// reject reports a local validation failure.
func (c *Controller) reject(err error, message string) error {
	c.notes.Error(message)
	return reportedError{err}
}
