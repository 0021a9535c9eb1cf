package vcs

import (
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	c, err := NewCommitter(path)
	require.NoError(t, err)

	require.NoError(t, c.Commit("Update projects: demo-project"))

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Update projects: demo-project", commit.Message)
	assert.Equal(t, "minegate", commit.Author.Name)
}

func TestCommitter_CleanWorktreeIsNoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	c, err := NewCommitter(path)
	require.NoError(t, err)

	require.NoError(t, c.Commit("Update projects: demo-project"))
	require.NoError(t, c.Commit("Update projects: demo-project"))

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, 0, commit.NumParents(), "identical content must not produce a second commit")
}

func TestCommitter_ReusesExistingRepository(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.json")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	c, err := NewCommitter(path)
	require.NoError(t, err)
	require.NoError(t, c.Commit("Update projects: demo-project"))
}
