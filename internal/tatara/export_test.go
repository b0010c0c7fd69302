package tatara

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T) *Artifact {
	t.Helper()
	require.NoError(t, os.MkdirAll(ArtifactDir, 0o755))
	path := filepath.Join(ArtifactDir, artifactName("14.2.0", "amd64"))
	require.NoError(t, os.WriteFile(path, []byte("deb payload"), 0o644))
	return &Artifact{FilePath: path, VersionTag: "14.2.0+glibc2.35"}
}

func TestExportWithoutOutputDir(t *testing.T) {
	cfg := setupTestConfig(t)
	artifact := writeArtifact(t)

	result := export(context.Background(), artifact, cfg)

	assert.False(t, result.Copied)
	assert.False(t, result.Uploaded)
	assert.Equal(t, artifact.FilePath, result.Path)
}

func TestExportCopiesToOutputDir(t *testing.T) {
	cfg := setupTestConfig(t)
	artifact := writeArtifact(t)

	out := t.TempDir()
	origOut := outputDir
	defer func() { outputDir = origOut }()
	outputDir = out

	result := export(context.Background(), artifact, cfg)

	assert.True(t, result.Copied)
	assert.Equal(t, filepath.Join(out, filepath.Base(artifact.FilePath)), result.Path)
	assert.FileExists(t, result.Path)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "deb payload", string(data))
}

func TestExportMissingOutputDirDegrades(t *testing.T) {
	cfg := setupTestConfig(t)
	artifact := writeArtifact(t)

	origOut := outputDir
	defer func() { outputDir = origOut }()
	outputDir = filepath.Join(t.TempDir(), "does-not-exist")

	result := export(context.Background(), artifact, cfg)

	assert.False(t, result.Copied)
	assert.Equal(t, artifact.FilePath, result.Path)
}

func TestNewRemoteStoreDisabledWithoutBucket(t *testing.T) {
	cfg := setupTestConfig(t)

	store, err := newRemoteStore(cfg)
	require.NoError(t, err)
	assert.Nil(t, store)
}
