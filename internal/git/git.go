// Package git shells out to git for the two observations the loop
// needs: which files an attempt touched, and undoing an attempt's
// changes when an escalation resolves to revert.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/okelly/loopgate/internal/state"
)

// ChangedFiles returns the paths with uncommitted changes in dir,
// including staged, unstaged and untracked files. The loop's own state
// directory is not part of the observed tree.
func ChangedFiles(ctx context.Context, dir string) ([]string, error) {
	out, err := run(ctx, dir, "status", "--porcelain", "--", ":(exclude)"+state.DirName)
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Porcelain format: two status chars, a space, then the path.
		// Renames show as "old -> new"; the new path is what changed.
		path := line
		if len(line) > 3 {
			path = line[3:]
		}
		if idx := strings.LastIndex(path, " -> "); idx != -1 {
			path = path[idx+len(" -> "):]
		}
		files = append(files, strings.TrimSpace(path))
	}
	return files, nil
}

// Revert discards all uncommitted changes in dir: tracked files are
// checked out from HEAD and untracked files are removed. The state
// directory survives a revert, its logs are append-only.
func Revert(ctx context.Context, dir string) error {
	if _, err := run(ctx, dir, "checkout", "--", "."); err != nil {
		return fmt.Errorf("git checkout failed: %w", err)
	}
	if _, err := run(ctx, dir, "clean", "-fd", "-e", state.DirName); err != nil {
		return fmt.Errorf("git clean failed: %w", err)
	}
	return nil
}

// Head returns the current HEAD commit hash, or "" in an empty repo.
func Head(ctx context.Context, dir string) (string, error) {
	out, err := run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		// No commits yet.
		return "", nil
	}
	return strings.TrimSpace(out), nil
}

// Repo binds the package functions to one working tree so callers can
// hold a single value satisfying small observer/reverter interfaces.
type Repo struct {
	Dir string
}

// ChangedFiles lists uncommitted changes in the repo.
func (r Repo) ChangedFiles(ctx context.Context) ([]string, error) {
	return ChangedFiles(ctx, r.Dir)
}

// Revert discards all uncommitted changes in the repo.
func (r Repo) Revert(ctx context.Context) error {
	return Revert(ctx, r.Dir)
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
