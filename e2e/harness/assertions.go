package harness

import (
	"strings"
	"testing"
)

// Assertions provides E2E-specific assertions.
type Assertions struct {
	t *testing.T
}

// NewAssertions creates an assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// OutputContains asserts the output contains all given strings.
func (a *Assertions) OutputContains(output string, expected ...string) {
	a.t.Helper()
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			a.t.Errorf("expected output to contain %q, got:\n%s", exp, truncate(output, 500))
		}
	}
}

// OutputNotContains asserts the output does not contain any of the given strings.
func (a *Assertions) OutputNotContains(output string, unexpected ...string) {
	a.t.Helper()
	for _, unexp := range unexpected {
		if strings.Contains(output, unexp) {
			a.t.Errorf("expected output NOT to contain %q, got:\n%s", unexp, truncate(output, 500))
		}
	}
}

// Lines asserts the output is exactly the given lines.
func (a *Assertions) Lines(output string, lines ...string) {
	a.t.Helper()
	got := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if output == "" {
		got = nil
	}
	if strings.Join(got, "\n") != strings.Join(lines, "\n") {
		a.t.Errorf("expected lines %q, got %q", lines, got)
	}
}

// NoError asserts the output doesn't contain error indicators.
func (a *Assertions) NoError(output string) {
	a.t.Helper()
	errorIndicators := []string{"Error:", "error:", "panic:", "PANIC:"}
	for _, ind := range errorIndicators {
		if strings.Contains(output, ind) {
			a.t.Errorf("unexpected error in output: found %q in:\n%s", ind, truncate(output, 500))
			return
		}
	}
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
