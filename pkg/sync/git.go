// Package sync keeps the data directory in a git repository and syncs it
// with a remote.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/stefanpenner/twy/pkg/logging"
)

// ErrNotRepo is returned when the data directory has no .git.
var ErrNotRepo = errors.New("not a git repository, run 'twy init' first")

// gitignore keeps logs and SQLite side files out of history.
const gitignore = `logs/
*.db-wal
*.db-shm
`

// Git runs git commands inside one data directory.
type Git struct {
	Dir string
	Out io.Writer

	log *logging.Logger
	now func() time.Time
}

// New returns a Git for dir that echoes command output to out.
func New(dir string, out io.Writer, log *logging.Logger) *Git {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Git{Dir: dir, Out: out, log: log, now: time.Now}
}

func (g *Git) cmd(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "git", append([]string{"-C", g.Dir}, args...)...)
}

// run executes git with its output echoed to g.Out.
func (g *Git) run(ctx context.Context, args ...string) error {
	cmd := g.cmd(ctx, args...)
	cmd.Stdout = g.Out
	cmd.Stderr = g.Out
	err := cmd.Run()
	if err != nil {
		g.log.Debug("git failed", "args", strings.Join(args, " "), "error", err)
	}
	return err
}

// quiet executes git and discards its output.
func (g *Git) quiet(ctx context.Context, args ...string) error {
	return g.cmd(ctx, args...).Run()
}

// IsRepo reports whether the data directory holds a git repository.
func (g *Git) IsRepo() bool {
	_, err := os.Stat(filepath.Join(g.Dir, ".git"))
	return err == nil
}

// Init makes the data directory a git repository if it is not one yet and,
// when remote is non-empty, points origin at it.
func (g *Git) Init(ctx context.Context, remote string) error {
	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if !g.IsRepo() {
		if err := g.run(ctx, "init"); err != nil {
			return fmt.Errorf("git init: %w", err)
		}
		g.log.Info("git repository initialized", "dir", g.Dir)
	}
	ignore := filepath.Join(g.Dir, ".gitignore")
	if _, err := os.Stat(ignore); os.IsNotExist(err) {
		if err := os.WriteFile(ignore, []byte(gitignore), 0644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
	}

	if remote == "" {
		return nil
	}
	// Remove existing origin first; it may not exist.
	_ = g.quiet(ctx, "remote", "remove", "origin")
	if err := g.run(ctx, "remote", "add", "origin", remote); err != nil {
		return fmt.Errorf("setting remote: %w", err)
	}
	fmt.Fprintf(g.Out, "Remote set to: %s\n", remote)
	g.log.Info("git remote set", "remote", remote)
	return nil
}

// Commit stages everything and commits when there is something to commit.
// It reports whether a commit was made.
func (g *Git) Commit(ctx context.Context) (bool, error) {
	if !g.IsRepo() {
		return false, ErrNotRepo
	}
	if err := g.quiet(ctx, "add", "-A"); err != nil {
		return false, fmt.Errorf("staging changes: %w", err)
	}
	if g.quiet(ctx, "diff", "--cached", "--quiet") == nil {
		return false, nil
	}
	msg := "sync " + g.now().Format("2006-01-02 15:04:05")
	if err := g.run(ctx, "commit", "-m", msg); err != nil {
		return false, fmt.Errorf("commit failed: %w", err)
	}
	return true, nil
}

// hasUpstream reports whether the current branch tracks a remote branch.
func (g *Git) hasUpstream(ctx context.Context) bool {
	return g.quiet(ctx, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{u}") == nil
}

// hasRemote reports whether origin is configured.
func (g *Git) hasRemote(ctx context.Context) bool {
	return g.quiet(ctx, "remote", "get-url", "origin") == nil
}

// Sync commits local changes, pulls with rebase (falling back to a merge)
// and pushes. Without a remote it only commits.
func (g *Git) Sync(ctx context.Context) error {
	fmt.Fprintln(g.Out, "Staging changes...")
	if _, err := g.Commit(ctx); err != nil {
		return err
	}
	if !g.hasRemote(ctx) {
		fmt.Fprintln(g.Out, "No remote configured, committed locally.")
		return nil
	}

	if g.hasUpstream(ctx) {
		fmt.Fprintln(g.Out, "Pulling...")
		if err := g.run(ctx, "pull", "--rebase"); err != nil {
			fmt.Fprintln(g.Out, "Rebase failed, trying merge...")
			_ = g.quiet(ctx, "rebase", "--abort")
			if err := g.run(ctx, "pull", "--no-rebase"); err != nil {
				_ = g.quiet(ctx, "merge", "--abort")
				g.log.Warn("sync conflict", "dir", g.Dir)
				return fmt.Errorf("sync failed: could not rebase or merge, resolve conflicts manually")
			}
		}
	}

	fmt.Fprintln(g.Out, "Pushing...")
	if err := g.run(ctx, "push", "-u", "origin", "HEAD"); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	fmt.Fprintln(g.Out, "Sync complete.")
	g.log.Info("sync complete", "dir", g.Dir)
	return nil
}
