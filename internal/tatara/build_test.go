package tatara

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGccConfigureArgs(t *testing.T) {
	args := gccConfigureArgs("/opt/gcc-14.2.0", []string{"c", "c++", "fortran"})
	assert.Equal(t, []string{
		"--prefix=/opt/gcc-14.2.0",
		"--enable-languages=c,c++,fortran",
		"--disable-multilib",
		"--enable-threads=posix",
		"--with-system-zlib",
	}, args)
}

func TestGlibcConfigureArgs(t *testing.T) {
	args := glibcConfigureArgs("/opt/glibc-2.35")
	assert.Equal(t, []string{
		"--prefix=/opt/glibc-2.35",
		"--enable-obsolete-rpc",
		"--with-tls",
		"--disable-werror",
	}, args)
}

func TestBuildEnvFiltersHostFlags(t *testing.T) {
	t.Setenv("CFLAGS", "-O3 -march=native")
	t.Setenv("CXXFLAGS", "-O3")
	t.Setenv("LDFLAGS", "-Wl,-O1")
	t.Setenv("TATARA_KEEP_ME", "yes")

	env := buildEnv()

	for _, e := range env {
		assert.NotContains(t, e, "CFLAGS=-O3", "host compiler flags must not leak into the build")
		assert.NotContains(t, e, "LDFLAGS=")
	}
	assert.Contains(t, env, "TATARA_KEEP_ME=yes")
	assert.Contains(t, env, "LC_ALL=POSIX")
}

func TestPrefixPaths(t *testing.T) {
	origRoot := prefixRoot
	defer func() { prefixRoot = origRoot }()
	prefixRoot = "/opt"

	assert.Equal(t, "/opt/gcc-14.2.0", gccPrefixPath("14.2.0"))
	assert.Equal(t, "/opt/glibc-2.35", glibcPrefixPath("2.35"))
}

func TestBuildErrorMessage(t *testing.T) {
	inner := errors.New("exit status 2")
	err := &BuildError{Name: "gcc", Phase: PhaseCompile, LogPath: "/tmp/gcc-compile.log", Err: inner}

	assert.Contains(t, err.Error(), "gcc")
	assert.Contains(t, err.Error(), string(PhaseCompile))
	assert.ErrorIs(t, err, inner)
}

func TestRunPhaseCapturesLog(t *testing.T) {
	setupTestConfig(t)
	require.NoError(t, os.MkdirAll(logDir, 0o755))

	logPath := filepath.Join(logDir, "probe.log")
	err := runPhase(testExecutor(), t.TempDir(), logPath, "sh", "-c", "echo configuring; echo done >&2")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "configuring")
	assert.Contains(t, string(data), "done")
}

func TestRunPhaseFailure(t *testing.T) {
	setupTestConfig(t)
	require.NoError(t, os.MkdirAll(logDir, 0o755))

	logPath := filepath.Join(logDir, "fail.log")
	err := runPhase(testExecutor(), t.TempDir(), logPath, "sh", "-c", "echo broken; exit 3")
	require.Error(t, err)

	data, readErr := os.ReadFile(logPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "broken")
}

func TestBuildSourceUnknownProfile(t *testing.T) {
	setupTestConfig(t)

	tree := &SourceTree{Name: "binutils", Version: "2.43", ExtractedPath: t.TempDir()}
	req := &BuildRequest{GCCVersion: "14.2.0", Jobs: 1, Languages: []string{"c"}}

	_, err := buildSource(tree, filepath.Join(t.TempDir(), "prefix"), req, testExecutor())

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, PhaseConfigure, buildErr.Phase)
	assert.Equal(t, "binutils", buildErr.Name)
}
