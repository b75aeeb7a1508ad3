package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	err := Init(dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "forecasts"), 0o755))
	path := filepath.Join(dir, "forecasts", "acme-2025-01-31.csv")
	require.NoError(t, os.WriteFile(path, []byte("date\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("x"), 0o644))

	hash, err := Commit(dir, "forecast: acme 2025-01-31", Author{Name: "Test Author", Email: "test@example.com"}, path)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "forecast: acme 2025-01-31|Test Author <test@example.com>")

	// Only the named path is committed.
	files := exec.Command("git", "ls-files")
	files.Dir = dir
	out, err = files.Output()
	require.NoError(t, err)
	assert.Equal(t, "forecasts/acme-2025-01-31.csv\n", string(out))
}

func TestCommit_NothingToCommit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644))

	_, err := Commit(dir, "first", DefaultAuthor, "a.csv")
	require.NoError(t, err)

	_, err = Commit(dir, "again", DefaultAuthor, "a.csv")
	assert.ErrorIs(t, err, ErrNothingToCommit)

	_, err = Commit(dir, "empty", DefaultAuthor)
	assert.ErrorIs(t, err, ErrNothingToCommit)
}
