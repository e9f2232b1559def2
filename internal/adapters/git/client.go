// Package git shells out to the git executable for clone/pull operations.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Client runs git commands against per-repository working directories.
type Client struct {
	GitPath string
}

// NewClient locates the git executable on PATH.
func NewClient() (*Client, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git executable not found: %w", err)
	}
	return &Client{GitPath: gitPath}, nil
}

// CloneOrPull brings workDir up to date with the remote: a pull if a clone
// already exists there, a fresh clone otherwise.
func (c *Client) CloneOrPull(ctx context.Context, gitURL, workDir string) error {
	if _, err := os.Stat(workDir + "/.git"); err == nil {
		return c.run(ctx, workDir, "pull", "--ff-only")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	return c.run(ctx, "", "clone", "--depth", "1", gitURL, workDir)
}

// HeadCommit returns the commit hash of workDir's HEAD.
func (c *Client) HeadCommit(ctx context.Context, workDir string) (string, error) {
	cmd := exec.CommandContext(ctx, c.GitPath, "rev-parse", "HEAD")
	cmd.Dir = workDir
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git rev-parse failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(out.String()), nil
}

func (c *Client) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, c.GitPath, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s failed: %s: %w", args[0], strings.TrimSpace(stderr.String()), err)
	}
	return nil
}
