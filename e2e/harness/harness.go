// Package harness provides E2E testing utilities for coinfav.
package harness

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/coinfav/e2e/testserver"
)

// E2EHarness is the main test orchestrator.
type E2EHarness struct {
	t          *testing.T
	server     *testserver.Server
	tmpDir     string
	configPath string
	timeout    time.Duration
}

// Config configures the harness.
type Config struct {
	// ServerHandlers override the default price API routes.
	ServerHandlers map[string]http.HandlerFunc
	Backend        string        // Default: sqlite
	MaxRetries     int           // Default: 0
	Timeout        time.Duration // Default: 5 seconds
}

// New creates a new E2E harness with a fake price API and a config file
// pointing every command at it.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Backend == "" {
		cfg.Backend = "sqlite"
	}

	h := &E2EHarness{
		t:       t,
		tmpDir:  t.TempDir(),
		timeout: cfg.Timeout,
	}

	routes := testserver.PriceAPI()
	for pattern, handler := range cfg.ServerHandlers {
		routes[pattern] = handler
	}
	h.server = testserver.New(routes)
	t.Cleanup(h.server.Close)

	for _, key := range []string{"COINFAV_API_KEY", "COINFAV_API_BASE_URL", "COINFAV_DATA_DIR", "COINFAV_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	h.configPath = filepath.Join(h.tmpDir, "config.yaml")
	content := fmt.Sprintf(`api:
  base_url: %s
  key: e2e-key
  max_retries: %d
  timeout: %s
storage:
  backend: %s
  data_dir: %s
log:
  level: error
`, h.server.URL, cfg.MaxRetries, cfg.Timeout, cfg.Backend, h.DataDir())
	if err := os.WriteFile(h.configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return h
}

// Server returns the fake price API.
func (h *E2EHarness) Server() *testserver.Server {
	return h.server
}

// TmpDir returns the temporary directory path.
func (h *E2EHarness) TmpDir() string {
	return h.tmpDir
}

// DataDir returns the data directory commands store favorites in.
func (h *E2EHarness) DataDir() string {
	return filepath.Join(h.tmpDir, "data")
}

// ConfigPath returns the generated config file.
func (h *E2EHarness) ConfigPath() string {
	return h.configPath
}

// Timeout returns the configured timeout.
func (h *E2EHarness) Timeout() time.Duration {
	return h.timeout
}

// T returns the testing.T instance.
func (h *E2EHarness) T() *testing.T {
	return h.t
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}
