package tatara

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tatara.conf")
	content := `
# build pinning
TATARA_GCC_VERSION=14.2.0
TATARA_JOBS = 4
GNU_MIRROR="https://mirror.example.org/gnu"
invalid line without equals
TATARA_LANGUAGES='c,c++'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "14.2.0", cfg.Values["TATARA_GCC_VERSION"])
	assert.Equal(t, "4", cfg.Values["TATARA_JOBS"])
	assert.Equal(t, "https://mirror.example.org/gnu", cfg.Values["GNU_MIRROR"])
	assert.Equal(t, "c,c++", cfg.Values["TATARA_LANGUAGES"])
	assert.NotContains(t, cfg.Values, "invalid line without equals")
	// TMPDIR always has a default
	assert.NotEmpty(t, cfg.Values["TMPDIR"])
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Values)
}

func TestMergeEnvOverrides(t *testing.T) {
	t.Setenv("TATARA_GCC_VERSION", "15.1.0")
	t.Setenv("GNU_MIRROR", "https://env-mirror.example.org/gnu")

	cfg := &Config{Values: map[string]string{
		"TATARA_GCC_VERSION": "14.2.0",
	}}
	mergeEnvOverrides(cfg)

	// Env wins over the file for TATARA_* keys
	assert.Equal(t, "15.1.0", cfg.Values["TATARA_GCC_VERSION"])
	assert.Equal(t, "https://env-mirror.example.org/gnu", cfg.Values["GNU_MIRROR"])

	// GNU_MIRROR from env must not clobber an explicit file value
	cfg = &Config{Values: map[string]string{
		"GNU_MIRROR": "https://file-mirror.example.org/gnu",
	}}
	mergeEnvOverrides(cfg)
	assert.Equal(t, "https://file-mirror.example.org/gnu", cfg.Values["GNU_MIRROR"])
}

func TestInitConfigDerivedPaths(t *testing.T) {
	base := t.TempDir()
	cfg := &Config{Values: map[string]string{
		"TMPDIR":           base,
		"TATARA_CACHE_DIR": filepath.Join(base, "cache"),
	}}
	gnuMirrorURL = ""
	initConfig(cfg)

	assert.Equal(t, filepath.Join(base, "cache", "sources"), CacheStore)
	assert.Equal(t, filepath.Join(base, "cache", "artifacts"), ArtifactDir)
	assert.Equal(t, filepath.Join(base, "tatara", "src"), srcDir)
	assert.Equal(t, filepath.Join(base, "tatara", "pkgroot"), pkgRootDir)
	assert.Equal(t, "/opt", prefixRoot)
	// Mirror falls back to the kernel.org default
	assert.Equal(t, "https://mirrors.kernel.org/gnu", gnuMirrorURL)
}
