// Package gitops versions forecast output by committing it to the project's
// git repository.
package gitops

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author identifies commits made by cashflow.
type Author struct {
	Name  string
	Email string
}

// DefaultAuthor is used when the caller has no better identity.
var DefaultAuthor = Author{Name: "cashflow", Email: "cashflow@localhost"}

// ErrNothingToCommit is returned by Commit when the paths have no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages paths (relative to dir or absolute inside it) and commits
// them. Returns the short commit hash.
func Commit(dir, message string, author Author, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", ErrNothingToCommit
	}
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.IsAbs(p) {
			r, err := filepath.Rel(dir, p)
			if err != nil {
				return "", fmt.Errorf("resolving %s: %w", p, err)
			}
			p = r
		}
		rel = append(rel, p)
	}

	add := exec.Command("git", append([]string{"add", "--"}, rel...)...)
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	// git exits 0 from diff --quiet when nothing is staged.
	diff := exec.Command("git", "diff", "--cached", "--quiet")
	diff.Dir = dir
	if err := diff.Run(); err == nil {
		return "", ErrNothingToCommit
	}

	commit := exec.Command("git", "commit", "--quiet", "-m", message)
	commit.Dir = dir
	commit.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+author.Name,
		"GIT_AUTHOR_EMAIL="+author.Email,
		"GIT_COMMITTER_NAME="+author.Name,
		"GIT_COMMITTER_EMAIL="+author.Email,
	)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
