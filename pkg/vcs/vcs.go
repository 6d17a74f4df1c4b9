// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vcs reports which source files changed since a marker, used to
// drive incremental update runs. Repo-root discovery goes through `git
// rev-parse --show-toplevel`; every later invocation uses exec.CommandContext.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// VCS reports changed files since a marker and the current marker value.
// Markers are opaque to the core (a commit SHA for Git) and persisted by the
// caller, not by this package.
type VCS interface {
	ChangedFiles(ctx context.Context, since string) ([]string, error)
	CurrentMarker(ctx context.Context) (string, error)
}

// GitVCS shells out to a system `git` binary.
type GitVCS struct {
	repoPath string
}

// NewGitVCS discovers the repo root from startPath. Returns an error if
// startPath is not inside a Git repository.
func NewGitVCS(startPath string) (*GitVCS, error) {
	if startPath == "" {
		return nil, fmt.Errorf("vcs: startPath cannot be empty")
	}
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("vcs: resolve absolute path: %w", err)
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("vcs: not a git repository: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("vcs: git not found or not installed: %w", err)
	}
	repoPath := strings.TrimSpace(string(output))
	if repoPath == "" {
		return nil, fmt.Errorf("vcs: could not determine git repository root")
	}
	return &GitVCS{repoPath: repoPath}, nil
}

func (g *GitVCS) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("vcs: git command timed out or canceled: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("vcs: git %s failed: %s", args[0], msg)
		}
		return "", fmt.Errorf("vcs: git %s failed: %w", args[0], err)
	}
	return stdout.String(), nil
}

// ChangedFiles returns every file path, relative to the repo root, that
// differs between `since` and the working tree (tracked changes plus
// untracked files, mirroring what a developer would expect "changed since
// that commit" to mean).
func (g *GitVCS) ChangedFiles(ctx context.Context, since string) ([]string, error) {
	diffOut, err := g.run(ctx, "diff", "--name-only", since)
	if err != nil {
		return nil, err
	}
	untrackedOut, err := g.run(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	addAll := func(blob string) {
		for _, line := range strings.Split(blob, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || seen[line] {
				continue
			}
			seen[line] = true
			files = append(files, line)
		}
	}
	addAll(diffOut)
	addAll(untrackedOut)
	return files, nil
}

// CurrentMarker returns the current HEAD commit SHA.
func (g *GitVCS) CurrentMarker(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
