package repos

import (
	"strconv"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/jrsteele09/devinsights/internal/errors"
)

// Repository is a GitHub repository the user can analyse.
type Repository struct {
	ID            string
	FullName      string // owner/repo
	Owner         string
	Name          string
	Description   string
	Language      string
	DefaultBranch string
	Private       bool
}

// Selection is the repository the user is currently working on.
type Selection struct {
	RepoID       string
	RepoFullName string
}

// ParseFullName splits "owner/repo". Both parts must be non-empty and the
// name may not contain further slashes.
func ParseFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", errors.Wrapf(errors.ErrInvalidRepoName, "%q", fullName)
	}
	return owner, repo, nil
}

func fromGitHub(r *github.Repository) Repository {
	out := Repository{
		ID:            strconv.FormatInt(r.GetID(), 10),
		FullName:      r.GetFullName(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
	}
	if out.FullName == "" && out.Owner != "" && out.Name != "" {
		out.FullName = out.Owner + "/" + out.Name
	}
	return out
}
