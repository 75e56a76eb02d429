package sync

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "twy test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "twy test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func TestInitCreatesRepoAndIgnore(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	g := New(filepath.Join(t.TempDir(), "data"), nil, nil)

	assert.False(t, g.IsRepo())
	require.NoError(t, g.Init(ctx, ""))
	assert.True(t, g.IsRepo())

	data, err := os.ReadFile(filepath.Join(g.Dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logs/")

	// Running it again is harmless.
	require.NoError(t, g.Init(ctx, ""))
}

func TestCommitOnlyWhenDirty(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	g := New(t.TempDir(), nil, nil)
	require.NoError(t, g.Init(ctx, ""))

	committed, err := g.Commit(ctx)
	require.NoError(t, err)
	assert.True(t, committed, ".gitignore is new")

	committed, err = g.Commit(ctx)
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestCommitRequiresRepo(t *testing.T) {
	g := New(t.TempDir(), nil, nil)
	_, err := g.Commit(context.Background())
	assert.ErrorIs(t, err, ErrNotRepo)
}

func TestSyncPushesToRemote(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	remote := filepath.Join(t.TempDir(), "remote.git")
	require.NoError(t, exec.Command("git", "init", "--bare", remote).Run())

	var out bytes.Buffer
	g := New(filepath.Join(t.TempDir(), "data"), &out, nil)
	require.NoError(t, g.Init(ctx, remote))
	require.NoError(t, os.WriteFile(filepath.Join(g.Dir, "note.md"), []byte("hello\n"), 0644))

	require.NoError(t, g.Sync(ctx))
	assert.Contains(t, out.String(), "Sync complete.")

	head := gitOutput(t, g.Dir, "rev-parse", "HEAD")
	branch := gitOutput(t, g.Dir, "rev-parse", "--abbrev-ref", "HEAD")
	assert.Equal(t, head, gitOutput(t, remote, "rev-parse", branch))

	// Second sync pulls from the now-tracked upstream and pushes nothing new.
	require.NoError(t, g.Sync(ctx))
}

func TestSyncWithoutRemoteCommitsLocally(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	var out bytes.Buffer
	g := New(t.TempDir(), &out, nil)
	require.NoError(t, g.Init(ctx, ""))

	require.NoError(t, g.Sync(ctx))
	assert.Contains(t, out.String(), "No remote configured")
	assert.NotEmpty(t, gitOutput(t, g.Dir, "log", "--oneline"))
}
