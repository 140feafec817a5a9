package harness

import (
	"bytes"
	"context"
	"time"

	"github.com/artpar/coinfav/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands.
type CLIRunner struct {
	harness *E2EHarness
}

// Run executes a CLI command with the given arguments. The harness config
// file is always passed.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--config", r.harness.configPath}, args...))

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// Toggle toggles favorites.
func (r *CLIRunner) Toggle(ids ...string) (*CLIResult, error) {
	return r.Run(append([]string{"favorites", "toggle"}, ids...)...)
}

// IDs prints the stored favorites.
func (r *CLIRunner) IDs() (*CLIResult, error) {
	return r.Run("favorites", "ids")
}

// List prints the favorites list.
func (r *CLIRunner) List(opts ...string) (*CLIResult, error) {
	return r.Run(append([]string{"favorites", "list"}, opts...)...)
}

// Show prints one asset's detail.
func (r *CLIRunner) Show(id string, opts ...string) (*CLIResult, error) {
	return r.Run(append([]string{"show", id}, opts...)...)
}

// Markets prints a market page.
func (r *CLIRunner) Markets(opts ...string) (*CLIResult, error) {
	return r.Run(append([]string{"markets"}, opts...)...)
}
