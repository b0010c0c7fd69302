package tatara

import (
	"context"
	"path/filepath"
	"testing"
)

// setupTestConfig points every derived path at a per-test temp tree and
// returns the config used to do it.
func setupTestConfig(t *testing.T) *Config {
	t.Helper()
	base := t.TempDir()
	cfg := &Config{Values: map[string]string{
		"TMPDIR":             base,
		"TATARA_CACHE_DIR":   filepath.Join(base, "cache"),
		"TATARA_WORK_DIR":    filepath.Join(base, "work"),
		"TATARA_PREFIX_ROOT": filepath.Join(base, "opt"),
	}}
	initConfig(cfg)
	outputDir = ""
	gnuMirrorURL = ""
	return cfg
}

func testExecutor() *Executor {
	return &Executor{Context: context.Background()}
}
