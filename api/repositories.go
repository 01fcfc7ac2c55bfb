package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/go-github/v60/github"
)

// RepositoryDebug is the backend's view of an ingested repository.
type RepositoryDebug struct {
	RepositoryExists bool `json:"repository_exists"`
	FileCount        int  `json:"file_count"`
	CommitCount      int  `json:"commit_count"`
	DeveloperCount   int  `json:"developer_count"`
}

// CommitsResponse is the reply to an ingestion trigger. Commits are kept raw;
// the client only needs to know whether any came back.
type CommitsResponse struct {
	Commits []json.RawMessage `json:"commits"`
}

// RepositoryDebug fetches the ingestion counters of owner/repo.
func (c *Client) RepositoryDebug(ctx context.Context, owner, repo string) (*RepositoryDebug, error) {
	var out RepositoryDebug
	path := "/api/debug/repo/" + url.PathEscape(owner) + "/" + url.PathEscape(repo)
	if err := c.do(ctx, call{method: http.MethodGet, path: path, timeout: c.timeouts.Status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchCommits asks the backend to ingest fullName. The backend mines the
// commits while the request is open, so this call may take minutes.
func (c *Client) FetchCommits(ctx context.Context, fullName, branch string, limit int) (*CommitsResponse, error) {
	q := url.Values{}
	q.Set("repo", fullName)
	q.Set("branch", branch)
	q.Set("limit", strconv.Itoa(limit))

	var out CommitsResponse
	if err := c.do(ctx, call{method: http.MethodGet, path: "/commits", query: q, timeout: c.timeouts.Ingest}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserRepositories lists the GitHub repositories of the authenticated user.
// The backend proxies GitHub's repository objects unchanged.
func (c *Client) UserRepositories(ctx context.Context) ([]*github.Repository, error) {
	var out []*github.Repository
	if err := c.do(ctx, call{method: http.MethodGet, path: "/user/repositories"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
