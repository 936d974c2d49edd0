package workspace

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/ui"
)

const snippet7 = `{"id":7,"title":"Hello","description":"","language":"Java","currentContent":"print()","activeVersionNumber":2}`

// stubSnippet7 serves detail, versions and list for snippet 7 with version
// 2 active.
func stubSnippet7(api *stubAPI) {
	api.on(http.MethodGet, "/snippets", http.StatusOK, `[`+snippet7+`,{"id":8,"title":"Other","language":"Java","activeVersionNumber":1}]`)
	api.on(http.MethodGet, "/snippets/7", http.StatusOK, snippet7)
	api.on(http.MethodGet, "/snippets/7/versions", http.StatusOK,
		`[{"id":13,"versionNumber":3},{"id":12,"versionNumber":2},{"id":11,"versionNumber":1}]`)
}

func TestSaveSnippet_RequiresTitleAndContent(t *testing.T) {
	tests := []struct {
		name, title, content string
	}{
		{"no title", "", "print()"},
		{"no content", "Hello", ""},
		{"neither", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.loggedIn(t)
			before := env.api.total()
			env.ctrl.SetTitle(tt.title)
			env.ctrl.SetContent(tt.content)

			err := env.ctrl.SaveSnippet(context.Background())

			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Equal(t, before, env.api.total(), "no requests")
			assert.Equal(t, []string{"Title and content required"}, env.messages(ui.LevelError))
		})
	}
}

func TestSaveSnippet_CreatesWhenNothingSelected(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	env.api.on(http.MethodPost, "/snippets", http.StatusCreated, `{"id":42}`)
	env.api.on(http.MethodGet, "/snippets/42/versions", http.StatusOK, `[{"id":1,"versionNumber":1}]`)
	env.api.on(http.MethodGet, "/snippets/42", http.StatusOK, `{"id":42,"activeVersionNumber":1}`)

	env.ctrl.SetTitle("Hello")
	env.ctrl.SetContent("print()")
	require.NoError(t, env.ctrl.SaveSnippet(context.Background()))

	assert.Equal(t, client.SnippetID(42), env.ctrl.Selected())
	assert.Equal(t, 1, env.api.count(http.MethodPost, "/snippets"))
	assert.JSONEq(t, `{"title":"Hello","content":"print()","language":"Java"}`, env.api.body(http.MethodPost, "/snippets"))
	assert.Equal(t, []string{"Snippet saved successfully!"}, env.messages(ui.LevelSuccess))

	v := env.ctrl.View()
	assert.True(t, v.DeleteVisible)
	require.Len(t, v.Versions, 1)
	assert.False(t, v.Versions[0].CanDelete)
}

func TestSaveSnippet_UpdatesSelection(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)
	env.api.on(http.MethodPut, "/snippets/7", http.StatusOK, snippet7)
	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))

	env.ctrl.SetContent("print(1)")
	require.NoError(t, env.ctrl.SaveSnippet(context.Background()))

	assert.Equal(t, 1, env.api.count(http.MethodPut, "/snippets/7"))
	assert.Zero(t, env.api.count(http.MethodPost, "/snippets"))
	assert.JSONEq(t, `{"title":"Hello","content":"print(1)","language":"Java"}`, env.api.body(http.MethodPut, "/snippets/7"))
}

func TestSaveSnippet_ConfiguredLanguage(t *testing.T) {
	api := newStubAPI(t)
	api.on(http.MethodPost, "/snippets", http.StatusCreated, `{"id":5}`)
	ctrl := New(client.New(api.srv.URL+"/api/v1"), nil, ui.NewNotifier(), ui.NewModal(), Options{Language: "Kotlin"})

	ctrl.SetTitle("K")
	ctrl.SetContent("fun main() {}")
	ctrl.SaveSnippet(context.Background())

	assert.JSONEq(t, `{"title":"K","content":"fun main() {}","language":"Kotlin"}`, api.body(http.MethodPost, "/snippets"))
}

func TestSaveSnippet_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	env.api.on(http.MethodPost, "/snippets", http.StatusBadRequest, `{"error":"validation_error","message":"Title must be 100 characters or less"}`)

	env.ctrl.SetTitle("x")
	env.ctrl.SetContent("y")
	err := env.ctrl.SaveSnippet(context.Background())

	assert.Error(t, err)
	assert.Equal(t, []string{"Save failed"}, env.messages(ui.LevelError))
	assert.Zero(t, env.ctrl.Selected())
}

func TestSelectSnippet(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)

	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))

	v := env.ctrl.View()
	assert.Equal(t, "Hello", v.Editor.Title)
	assert.Equal(t, "print()", v.Editor.Content)
	assert.True(t, v.DeleteVisible)
	require.Len(t, v.Snippets, 2)
	assert.True(t, v.Snippets[0].Active)
	assert.False(t, v.Snippets[1].Active)
	assert.Len(t, v.Versions, 3)
}

func TestSelectSnippet_DiscardsStaleResponse(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)

	hit := make(chan struct{}, 1)
	release := make(chan struct{})
	env.api.onRoute(http.MethodGet, "/snippets/1", stubRoute{
		status: http.StatusOK,
		body:   `{"id":1,"title":"slow","currentContent":"old","activeVersionNumber":1}`,
		hit:    hit,
		wait:   release,
	})

	done := make(chan error, 1)
	go func() { done <- env.ctrl.SelectSnippet(context.Background(), 1) }()
	<-hit

	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))
	close(release)
	require.NoError(t, <-done)

	v := env.ctrl.View()
	assert.Equal(t, client.SnippetID(7), env.ctrl.Selected())
	assert.Equal(t, "Hello", v.Editor.Title, "the older response must not overwrite the newer selection")
	assert.Zero(t, env.api.count(http.MethodGet, "/snippets/1/versions"))
}

func TestSelectSnippet_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	env.api.on(http.MethodGet, "/snippets/9", http.StatusForbidden, `{"error":"forbidden","message":"Access Denied: You do not own this snippet."}`)

	err := env.ctrl.SelectSnippet(context.Background(), 9)

	assert.ErrorIs(t, err, client.ErrRejected)
	assert.Equal(t, []string{"Error loading snippet"}, env.messages(ui.LevelError))
	assert.False(t, env.ctrl.View().DeleteVisible)
}

func TestNewSnippet(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)
	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))
	require.True(t, env.ctrl.View().DeleteVisible)

	require.NoError(t, env.ctrl.NewSnippet(context.Background()))

	v := env.ctrl.View()
	assert.False(t, v.DeleteVisible)
	assert.Equal(t, ui.Editor{}, v.Editor)
	assert.Empty(t, v.Versions)
	assert.Zero(t, v.SelectedID)
	for _, row := range v.Snippets {
		assert.False(t, row.Active)
	}
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		heading string
		items   []string
		errMsg  string
	}{
		{name: "valid", status: 200, body: `[]`, heading: "Syntax Valid!"},
		{name: "errors", status: 200, body: `["Line 1: ';' expected","Line 3: class, interface, enum, or record expected"]`,
			heading: "Syntax Errors Found", items: []string{"Line 1: ';' expected", "Line 3: class, interface, enum, or record expected"}},
		{name: "error object", status: 400, body: `{"error":"validation_error","message":"Content is required"}`, errMsg: "Content is required"},
		{name: "odd shape", status: 200, body: `{"ok":true}`, errMsg: "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.loggedIn(t)
			env.api.on(http.MethodPost, "/snippets/validate", tt.status, tt.body)
			env.ctrl.SetContent("class A {}")

			err := env.ctrl.ValidateCode(context.Background())

			if tt.errMsg != "" {
				assert.Error(t, err)
				assert.Equal(t, []string{tt.errMsg}, env.messages(ui.LevelError))
				assert.False(t, env.modal.IsOpen())
				return
			}
			require.NoError(t, err)
			require.True(t, env.modal.IsOpen())
			assert.Equal(t, tt.heading, env.modal.Content().Heading)
			assert.Equal(t, tt.items, env.modal.Content().Items)
			assert.Equal(t, []string{ui.ActionClose}, env.modal.Actions())
		})
	}
}

func TestValidateCode_TransportError(t *testing.T) {
	api := newStubAPI(t)
	notes := ui.NewNotifier()
	ctrl := New(client.New(api.srv.URL), nil, notes, ui.NewModal(), Options{})
	api.srv.Close()

	err := ctrl.ValidateCode(context.Background())

	assert.Error(t, err)
	require.Len(t, notes.Active(), 1)
	assert.Equal(t, "Validation service error", notes.Active()[0].Message)
}

func TestDeleteSnippet_Confirmed(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)
	env.api.on(http.MethodDelete, "/snippets/7", http.StatusNoContent, ``)
	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))

	require.NoError(t, env.ctrl.ConfirmDeleteSnippet())
	assert.Equal(t, []string{ui.ActionCancel, ui.ActionConfirm}, env.modal.Actions())
	assert.Zero(t, env.api.count(http.MethodDelete, "/snippets/7"), "nothing is deleted before confirming")

	require.NoError(t, env.ctrl.Confirm(context.Background()))

	assert.Equal(t, 1, env.api.count(http.MethodDelete, "/snippets/7"))
	assert.False(t, env.modal.IsOpen())
	assert.Contains(t, env.messages(ui.LevelSuccess), "Snippet deleted successfully")
	v := env.ctrl.View()
	assert.Zero(t, v.SelectedID)
	assert.False(t, v.DeleteVisible)
}

func TestDeleteSnippet_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)
	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))

	require.NoError(t, env.ctrl.ConfirmDeleteSnippet())
	env.ctrl.Cancel()

	assert.False(t, env.modal.IsOpen())
	assert.Zero(t, env.api.count(http.MethodDelete, "/snippets/7"))
	assert.Equal(t, client.SnippetID(7), env.ctrl.Selected())
}

func TestDeleteSnippet_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)
	env.api.on(http.MethodDelete, "/snippets/7", http.StatusForbidden, `{"error":"forbidden","message":"Access Denied: You do not own this snippet."}`)
	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))
	require.NoError(t, env.ctrl.ConfirmDeleteSnippet())

	err := env.ctrl.Confirm(context.Background())

	assert.Error(t, err)
	assert.False(t, env.modal.IsOpen(), "the modal closes even when the action fails")
	assert.Equal(t, []string{"Access Denied: You do not own this snippet."}, env.messages(ui.LevelError),
		"the failure is reported once")
	assert.Equal(t, client.SnippetID(7), env.ctrl.Selected())
}

func TestConfirmDeleteSnippet_NoSelection(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.ctrl.ConfirmDeleteSnippet(), ErrNoSelection)
	assert.False(t, env.modal.IsOpen())
}

func TestDiffAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.loggedIn(t)
	stubSnippet7(env.api)
	require.NoError(t, env.ctrl.SelectSnippet(context.Background(), 7))

	env.api.on(http.MethodGet, "/snippets/7/diff", http.StatusOK,
		`{"deltas":["[ChangeDelta, position: 0, lines: [a] to [b]]"],"unified":"--- version 1\n+++ version 2\n"}`)
	require.NoError(t, env.ctrl.DiffVersions(context.Background(), 1, 2))
	assert.Equal(t, "Version 1 vs Version 2", env.modal.Content().Heading)
	assert.Equal(t, []string{"[ChangeDelta, position: 0, lines: [a] to [b]]"}, env.modal.Content().Items)

	env.api.on(http.MethodGet, "/snippets/7/versions/2/metrics", http.StatusOK, `{"loc":3,"keywordCount":4,"cyclomaticComplexity":2}`)
	require.NoError(t, env.ctrl.ShowMetrics(context.Background(), 2))
	assert.Equal(t, []string{"Lines of code: 3", "Keywords: 4", "Cyclomatic complexity: 2"}, env.modal.Content().Items)
}
