// Package vcs records projects document changes in a git repository rooted
// at the settings directory, giving the shared configuration a history
// independent of the audit journal.
package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName  = "minegate"
	authorEmail = "minegate@localhost"
)

// Committer commits the projects document after successful merges.
type Committer struct {
	dir  string
	file string
}

// NewCommitter prepares a committer for the document at projectsPath,
// initializing a repository in its directory if none exists.
func NewCommitter(projectsPath string) (*Committer, error) {
	dir := filepath.Dir(projectsPath)

	_, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		_, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open settings repository: %w", err)
	}

	rel, err := filepath.Rel(dir, projectsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve projects path: %w", err)
	}
	return &Committer{dir: dir, file: rel}, nil
}

// Commit stages the projects document and commits it with a message naming
// the updated projects. A clean worktree is not an error; repeated
// registrations of identical entries simply produce no commit.
func (c *Committer) Commit(message string) error {
	repo, err := git.PlainOpen(c.dir)
	if err != nil {
		return fmt.Errorf("failed to open settings repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	if _, err := wt.Add(c.file); err != nil {
		return fmt.Errorf("failed to stage projects file: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit projects file: %w", err)
	}
	return nil
}
