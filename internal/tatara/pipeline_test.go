package tatara

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPipelineFailsFastOnFetch(t *testing.T) {
	cfg := setupTestConfig(t)

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	gnuMirrorURL = ts.URL

	UserExec = testExecutor()
	RootExec = testExecutor()

	req := &BuildRequest{GCCVersion: "99.0.0", GlibcVersion: "9.99", Jobs: 1, Languages: []string{"c"}}
	err := runPipeline(context.Background(), cfg, req)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "gcc", fetchErr.Name)
	assert.Equal(t, FetchNotFound, fetchErr.Reason)

	// Nothing past the fetch stage may have run.
	assert.NoDirExists(t, filepath.Join(srcDir, "gcc"))
	assert.NoDirExists(t, filepath.Join(buildRootDir, "gcc"))
	assert.NoDirExists(t, pkgRootDir)
}

func TestEnsurePrefixRoot(t *testing.T) {
	setupTestConfig(t)
	RootExec = testExecutor()

	require.NoError(t, ensurePrefixRoot())
	assert.DirExists(t, prefixRoot)

	// Idempotent when the root already exists.
	require.NoError(t, ensurePrefixRoot())
}
