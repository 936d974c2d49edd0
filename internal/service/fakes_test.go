package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/sakif/codemaster/internal/apperror"
	"github.com/sakif/codemaster/internal/auth"
	"github.com/sakif/codemaster/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory SnippetRepository and VersionRepository.
// It stores copies so callers cannot mutate its state behind its back.
type fakeStore struct {
	mu          sync.Mutex
	snippets    map[int64]model.Snippet
	versions    map[int64]model.Version
	metrics     map[int64]model.Metrics
	audit       []model.AuditEntry
	nextSnippet int64
	nextVersion int64

	// set to simulate a database failure on writes
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snippets: make(map[int64]model.Snippet),
		versions: make(map[int64]model.Version),
		metrics:  make(map[int64]model.Metrics),
	}
}

func (f *fakeStore) addVersion(v *model.Version, m *model.Metrics) {
	f.nextVersion++
	v.ID = f.nextVersion
	f.versions[v.ID] = *v
	if m != nil {
		m.VersionID = v.ID
		f.metrics[v.ID] = *m
	}
}

func (f *fakeStore) addAudit(e *model.AuditEntry) {
	if e != nil {
		e.ID = strconv.Itoa(len(f.audit) + 1)
		f.audit = append(f.audit, *e)
	}
}

func (f *fakeStore) CreateWithVersion(_ context.Context, s *model.Snippet, v *model.Version, m *model.Metrics, a *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.nextSnippet++
	s.ID = f.nextSnippet
	f.snippets[s.ID] = *s
	v.SnippetID = s.ID
	f.addVersion(v, m)
	if a != nil {
		a.EntityID = s.ID
	}
	f.addAudit(a)
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	return &s, nil
}

func (f *fakeStore) ListByAuthor(_ context.Context, authorID string) ([]model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Snippet, 0)
	for _, s := range f.snippets {
		if s.AuthorID == authorID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) AppendVersion(_ context.Context, s *model.Snippet, v *model.Version, m *model.Metrics, a *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	if _, ok := f.snippets[s.ID]; !ok {
		return apperror.NotFound("snippet", strconv.FormatInt(s.ID, 10))
	}
	for _, existing := range f.versions {
		if existing.SnippetID == s.ID && existing.VersionNumber == v.VersionNumber {
			return apperror.Conflict("version", strconv.Itoa(v.VersionNumber))
		}
	}
	f.snippets[s.ID] = *s
	v.SnippetID = s.ID
	f.addVersion(v, m)
	f.addAudit(a)
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64, a *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}
	delete(f.snippets, id)
	for vid, v := range f.versions {
		if v.SnippetID == id {
			delete(f.versions, vid)
			delete(f.metrics, vid)
		}
	}
	f.addAudit(a)
	return nil
}

func (f *fakeStore) ListVersions(_ context.Context, snippetID int64) ([]model.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Version, 0)
	for _, v := range f.versions {
		if v.SnippetID == snippetID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (f *fakeStore) GetVersion(_ context.Context, snippetID int64, number int) (*model.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.SnippetID == snippetID && v.VersionNumber == number {
			return &v, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Version not found"}
}

func (f *fakeStore) GetVersionByID(_ context.Context, id int64) (*model.Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.versions[id]
	if !ok {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Version not found"}
	}
	return &v, nil
}

func (f *fakeStore) DeleteVersion(_ context.Context, id int64, a *model.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.versions[id]; !ok {
		return apperror.NotFound("version", strconv.FormatInt(id, 10))
	}
	delete(f.versions, id)
	delete(f.metrics, id)
	f.addAudit(a)
	return nil
}

func (f *fakeStore) GetMetrics(_ context.Context, versionID int64) (*model.Metrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.metrics[versionID]
	if !ok {
		return nil, apperror.NotFound("metrics", strconv.FormatInt(versionID, 10))
	}
	return &m, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return apperror.Conflictf("Email already exists")
		}
	}
	f.nextID++
	u.ID = "user-" + strconv.Itoa(f.nextID)
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	for _, existing := range f.byID {
		if existing.GitHubID == u.GitHubID {
			existing.Username = u.Username
			existing.AvatarURL = u.AvatarURL
			*u = *existing
			f.mu.Unlock()
			return nil
		}
	}
	f.mu.Unlock()
	if u.Role == "" {
		u.Role = model.RoleDeveloper
	}
	return f.CreateUser(ctx, u)
}

// fakeChecker returns canned diagnostics.
type fakeChecker struct {
	diags []string
	err   error
	calls int
}

func (f *fakeChecker) Check(context.Context, string) ([]string, error) {
	f.calls++
	return f.diags, f.err
}

// fakeGitHub accepts exactly one token.
type fakeGitHub struct {
	token string
	user  auth.GitHubUser
}

func (f fakeGitHub) Verify(_ context.Context, token string) (*auth.GitHubUser, error) {
	if token != f.token {
		return nil, apperror.Unauthorized("bad token")
	}
	u := f.user
	return &u, nil
}
