package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	internalerrors "github.com/jrsteele09/devinsights/internal/errors"
	"github.com/jrsteele09/devinsights/state"
	"github.com/stretchr/testify/require"
)

const testToken = "session-token-1"

// backendServer is a minimal analytics backend. The repository becomes
// processed after processedAfter status polls that follow ingestion.
type backendServer struct {
	lock           sync.Mutex
	ingested       bool
	pollsAfter     int
	processedAfter int
	emptyCommits   bool
}

func (b *backendServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	user := map[string]any{"id": 583231, "name": "Ada Lovelace", "login": "ada", "email": "ada@example.com"}

	mux.HandleFunc("POST /auth/github/callback", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Code string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Code != "good-code" {
			http.Error(w, `{"detail":"bad code"}`, http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"token": testToken, "user": user})
	})

	mux.HandleFunc("GET /auth/validate", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			http.Error(w, `{"detail":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"isValid": true, "user": user})
	})

	mux.HandleFunc("GET /user/repositories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": 7, "full_name": "acme/widgets", "name": "widgets", "owner": map[string]any{"login": "acme"}, "language": "Go"},
			{"id": 8, "full_name": "acme/gadgets", "name": "gadgets", "owner": map[string]any{"login": "acme"}, "private": true},
		})
	})

	mux.HandleFunc("GET /api/debug/repo/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()

		if !b.ingested {
			writeJSON(w, map[string]any{"repository_exists": false})
			return
		}
		b.pollsAfter++
		if b.pollsAfter < b.processedAfter {
			writeJSON(w, map[string]any{"repository_exists": true})
			return
		}
		writeJSON(w, map[string]any{"repository_exists": true, "file_count": 12, "commit_count": 40, "developer_count": 3})
	})

	mux.HandleFunc("GET /commits", func(w http.ResponseWriter, r *http.Request) {
		b.lock.Lock()
		defer b.lock.Unlock()

		if b.emptyCommits {
			writeJSON(w, map[string]any{"commits": []any{}})
			return
		}
		b.ingested = true
		writeJSON(w, map[string]any{"commits": []any{map[string]any{"sha": "abc123"}}})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type testEnv struct {
	t         *testing.T
	stateFile string
}

func setupTestEnv(t *testing.T, backend *backendServer) *testEnv {
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)

	stateFile := filepath.Join(t.TempDir(), "state.yaml")
	t.Setenv("DEVINSIGHTS_API_URL", srv.URL)
	t.Setenv("DEVINSIGHTS_STATE_FILE", stateFile)
	t.Setenv("DEVINSIGHTS_POLL_INTERVAL", "10ms")
	t.Setenv("DEVINSIGHTS_LOG_LEVEL", "error")
	t.Setenv("DEVINSIGHTS_ENV", "TEST")
	t.Setenv("DEVINSIGHTS_METRICS_ADDR", "")

	return &testEnv{t: t, stateFile: stateFile}
}

func (e *testEnv) run(stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	err := run(append([]string{"devinsights"}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	out, err := e.run("", args...)
	require.NoError(e.t, err, out)
	return out
}

func (e *testEnv) store() *state.FileStore {
	fs, err := state.NewFileStore(e.stateFile)
	require.NoError(e.t, err)
	return fs
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := setupTestEnv(t, &backendServer{})

	out := env.mustRun("login", "--code", "good-code")
	require.Contains(t, out, "Logged in as Ada Lovelace")

	out = env.mustRun("whoami")
	require.Equal(t, "Ada Lovelace (ada) <ada@example.com>\n", out)

	env.mustRun("logout")

	_, err := env.run("", "whoami")
	require.ErrorIs(t, err, internalerrors.ErrNotAuthenticated)
}

func TestLoginRequiresCode(t *testing.T) {
	env := setupTestEnv(t, &backendServer{})

	_, err := env.run("", "login")
	require.ErrorContains(t, err, "--code is required")
}

func TestReposListAndSelect(t *testing.T) {
	env := setupTestEnv(t, &backendServer{})
	env.mustRun("login", "--code", "good-code")

	env.mustRun("repos", "select", "ACME/widgets")

	out := env.mustRun("repos", "list")
	require.Contains(t, out, "* acme/widgets")
	require.Contains(t, out, "  acme/gadgets")
	require.Contains(t, out, "private")

	sel, ok := env.store().Get(state.KeySelectedRepo)
	require.True(t, ok)
	require.Equal(t, "7", sel)

	_, err := env.run("", "repos", "select", "acme/unknown")
	require.ErrorIs(t, err, internalerrors.ErrRepositoryNotFound)

	env.mustRun("repos", "clear")
	_, ok = env.store().Get(state.KeySelectedRepoFullName)
	require.False(t, ok)
}

func TestStatusWithoutSelection(t *testing.T) {
	env := setupTestEnv(t, &backendServer{})
	env.mustRun("login", "--code", "good-code")

	_, err := env.run("", "status")
	require.ErrorIs(t, err, internalerrors.ErrNoSelection)

	out := env.mustRun("status", "acme/widgets")
	require.Equal(t, "acme/widgets: not processed\n", out)
}

func TestCheckProcessesAndRedirects(t *testing.T) {
	env := setupTestEnv(t, &backendServer{processedAfter: 3})
	env.mustRun("login", "--code", "good-code")
	env.mustRun("repos", "select", "acme/widgets")

	out := env.mustRun("check", "--yes", "--from", "/reports/heatmap")
	require.Contains(t, out, "needs to be processed")
	require.Contains(t, out, "Fetching repository commit data...")
	require.Contains(t, out, "Continue at /reports/heatmap")

	_, ok := env.store().Get(state.KeyRequestedPath)
	require.False(t, ok)

	out = env.mustRun("status")
	require.Contains(t, out, "acme/widgets: processed")
	require.Contains(t, out, "commits: 40")
}

func TestCheckSkipWhenDeclined(t *testing.T) {
	backend := &backendServer{processedAfter: 1}
	env := setupTestEnv(t, backend)
	env.mustRun("login", "--code", "good-code")

	out, err := env.run("n\n", "check", "acme/widgets")
	require.NoError(t, err)
	require.Contains(t, out, "Skipped for now.")

	backend.lock.Lock()
	defer backend.lock.Unlock()
	require.False(t, backend.ingested)
}

func TestProcessFailureRedirectsToRepositories(t *testing.T) {
	env := setupTestEnv(t, &backendServer{emptyCommits: true})
	env.mustRun("login", "--code", "good-code")

	out, err := env.run("", "process", "acme/widgets")
	require.Error(t, err)
	require.Contains(t, out, "Manage repositories at /settings/repositories")
}

func TestCommandsRequireLogin(t *testing.T) {
	env := setupTestEnv(t, &backendServer{})

	for _, args := range [][]string{{"whoami"}, {"repos", "list"}, {"status", "acme/widgets"}, {"process", "acme/widgets"}} {
		_, err := env.run("", args...)
		require.ErrorIs(t, err, internalerrors.ErrNotAuthenticated, "%v", args)
	}
}
