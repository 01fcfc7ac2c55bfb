package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/devinsights/api"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("no session")
}

func TestRepositoryDebug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/debug/repo/octo/hello", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"repository_exists": true,
			"file_count":        5,
			"commit_count":      20,
			"developer_count":   3,
		})
	}))
	defer srv.Close()

	c := api.New(srv.URL+"/", api.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-1"})))
	got, err := c.RepositoryDebug(context.Background(), "octo", "hello")
	require.NoError(t, err)
	require.Equal(t, &api.RepositoryDebug{RepositoryExists: true, FileCount: 5, CommitCount: 20, DeveloperCount: 3}, got)
}

func TestFetchCommits_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/commits", r.URL.Path)
		require.Equal(t, "octo/hello", r.URL.Query().Get("repo"))
		require.Equal(t, "main", r.URL.Query().Get("branch"))
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"commits": [{"sha": "a1"}, {"sha": "b2"}]}`))
	}))
	defer srv.Close()

	got, err := api.New(srv.URL).FetchCommits(context.Background(), "octo/hello", "main", 100)
	require.NoError(t, err)
	require.Len(t, got.Commits, 2)
}

func TestRequest_UnauthenticatedWhenNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	repos, err := api.New(srv.URL, api.WithTokenSource(failingSource{})).UserRepositories(context.Background())
	require.NoError(t, err)
	require.Empty(t, repos)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "code already used", http.StatusConflict)
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).ExchangeCode(context.Background(), "abc")
	require.Error(t, err)
	require.True(t, api.IsStatus(err, http.StatusConflict))
	require.False(t, api.IsStatus(err, http.StatusNotFound))
	require.Contains(t, err.Error(), "code already used")
}

func TestExchangeCode_Body(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/github/callback", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "the-code", body["code"])
		_, _ = w.Write([]byte(`{"token": "tok-9", "user": {"id": 7, "name": "Mona"}}`))
	}))
	defer srv.Close()

	got, err := api.New(srv.URL).ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "tok-9", got.Token)
	require.Equal(t, "7", got.User.ID)
}

func TestValidateToken_ExplicitTokenWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"user": {"id": "1"}}`))
	}))
	defer srv.Close()

	c := api.New(srv.URL, api.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "from-source"})))
	got, err := c.ValidateToken(context.Background(), "explicit")
	require.NoError(t, err)
	require.Equal(t, "1", got.User.ID)
}

func TestStatusTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	timeouts := api.DefaultTimeouts()
	timeouts.Status = 20 * time.Millisecond
	c := api.New(srv.URL, api.WithTimeouts(timeouts))

	_, err := c.RepositoryDebug(context.Background(), "octo", "slow")
	require.ErrorContains(t, err, "deadline exceeded")
}
