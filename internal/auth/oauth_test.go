package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitHubVerifier_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer gho_valid" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":42,"login":"octocat","name":"The Octocat","avatar_url":"https://a/b.png"}`))
	}))
	defer srv.Close()

	v := NewGitHubVerifier(srv.URL)

	user, err := v.Verify(context.Background(), "gho_valid")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "octocat", user.Login)

	_, err = v.Verify(context.Background(), "gho_revoked")
	assert.Error(t, err)

	_, err = v.Verify(context.Background(), "")
	assert.Error(t, err)
}

func TestGitHubVerifier_RejectsZeroID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"ghost"}`))
	}))
	defer srv.Close()

	_, err := NewGitHubVerifier(srv.URL).Verify(context.Background(), "tok")
	assert.Error(t, err)
}
