package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

const defaultGitHubAPI = "https://api.github.com"

// GitHubUser is the subset of the GitHub /user response the server keeps.
type GitHubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// GitHubVerifier resolves a GitHub access token to its owner.
//
// Clients obtain the token themselves (device flow) and hand it to
// POST /auth/github; the server never sees a client secret.
type GitHubVerifier struct {
	apiBase string
}

// NewGitHubVerifier returns a verifier against apiBase, or the public GitHub
// API when apiBase is empty.
func NewGitHubVerifier(apiBase string) *GitHubVerifier {
	if apiBase == "" {
		apiBase = defaultGitHubAPI
	}
	return &GitHubVerifier{apiBase: strings.TrimRight(apiBase, "/")}
}

// Verify calls GET /user with accessToken and returns the profile.
func (v *GitHubVerifier) Verify(ctx context.Context, accessToken string) (*GitHubUser, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("auth: empty GitHub access token")
	}

	// oauth2.NewClient adds "Authorization: Bearer <token>" to every request.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(ctx, src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiBase+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building GitHub /user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var ghUser GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&ghUser); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if ghUser.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	return &ghUser, nil
}
