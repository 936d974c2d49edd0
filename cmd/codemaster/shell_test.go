package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/session"
	"github.com/sakif/codemaster/internal/ui"
	"github.com/sakif/codemaster/internal/workspace"
)

func newTestShell(t *testing.T, h http.HandlerFunc) (*shell, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	api := client.New(srv.URL + "/api/v1")
	ctrl := workspace.New(api, session.NewMemoryStore(), ui.NewNotifier(), ui.NewModal(), workspace.Options{})
	return &shell{ctrl: ctrl, out: out, renderer: ui.NewRenderer(out)}, out
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":"not_found","message":"not found"}`))
}

func TestShell_Usage(t *testing.T) {
	sh, out := newTestShell(t, notFound)
	ctx := context.Background()

	tests := []struct {
		line  string
		usage string
	}{
		{line: "login alice", usage: "login <email> <password>"},
		{line: "select abc", usage: "select <id>"},
		{line: "diff 1", usage: "diff <v1> <v2>"},
		{line: "diff 1 x", usage: "diff <v1> <v2>"},
		{line: "register a b", usage: "register <name> <email> <username> <password> [role]"},
		{line: "metrics", usage: "metrics <n>"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := sh.exec(ctx, tt.line)
			var usage usageError
			require.ErrorAs(t, err, &usage)
			assert.Equal(t, tt.usage, string(usage))
		})
	}
	assert.Empty(t, out.String())
}

func TestShell_LocalCommands(t *testing.T) {
	sh, out := newTestShell(t, notFound)
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "   "))
	require.NoError(t, sh.exec(ctx, "help"))
	assert.Contains(t, out.String(), "rollback <n>")

	out.Reset()
	require.NoError(t, sh.exec(ctx, "frobnicate"))
	assert.Contains(t, out.String(), `unknown command "frobnicate"`)

	require.NoError(t, sh.exec(ctx, "title  Hello World "))
	assert.Equal(t, "Hello World", sh.ctrl.View().Editor.Title)

	path := filepath.Join(t.TempDir(), "Main.java")
	require.NoError(t, os.WriteFile(path, []byte("class Main {}\n"), 0o600))
	require.NoError(t, sh.exec(ctx, "edit "+path))
	assert.Equal(t, "class Main {}\n", sh.ctrl.View().Editor.Content)

	require.NoError(t, sh.exec(ctx, "signup"))
	assert.Equal(t, ui.ModeRegister, sh.ctrl.View().AuthMode)

	assert.ErrorIs(t, sh.exec(ctx, "quit"), errQuit)
}

func TestShell_LoginAndList(t *testing.T) {
	sh, _ := newTestShell(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method + " " + r.URL.Path {
		case "POST /api/v1/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok", "username": "alice"})
		case "GET /api/v1/snippets":
			_, _ = w.Write([]byte(`[{"id":3,"title":"Hello","activeVersionNumber":1}]`))
		default:
			notFound(w, r)
		}
	})

	require.NoError(t, sh.exec(context.Background(), "login alice@example.com secret123"))

	v := sh.ctrl.View()
	assert.Equal(t, ui.PageMain, v.Page)
	assert.Equal(t, "alice", v.Username)
	require.Len(t, v.Snippets, 1)
	assert.Equal(t, "Hello", v.Snippets[0].Title)
}

func TestShell_Run(t *testing.T) {
	sh, out := newTestShell(t, notFound)

	in := bufio.NewScanner(strings.NewReader("help\nquit\nhelp\n"))
	require.NoError(t, sh.run(context.Background(), in))

	assert.Equal(t, 1, strings.Count(out.String(), "Commands:"))
}
