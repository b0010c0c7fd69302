package tatara

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     BuildRequest
		wantErr bool
	}{
		{
			name:    "missing gcc version",
			req:     BuildRequest{},
			wantErr: true,
		},
		{
			name:    "whitespace gcc version",
			req:     BuildRequest{GCCVersion: "   "},
			wantErr: true,
		},
		{
			name:    "latest sentinel rejected",
			req:     BuildRequest{GCCVersion: "latest"},
			wantErr: true,
		},
		{
			name:    "negative jobs",
			req:     BuildRequest{GCCVersion: "14.2.0", Jobs: -1},
			wantErr: true,
		},
		{
			name: "valid without glibc",
			req:  BuildRequest{GCCVersion: "14.2.0"},
		},
		{
			name: "valid with glibc",
			req:  BuildRequest{GCCVersion: "14.2.0", GlibcVersion: "2.35"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBuildRequestDefaults(t *testing.T) {
	req := BuildRequest{GCCVersion: "14.2.0"}
	require.NoError(t, req.validate())

	assert.Equal(t, runtime.NumCPU(), req.Jobs)
	assert.Equal(t, []string{"c", "c++"}, req.Languages)
}

func TestVersionTag(t *testing.T) {
	tests := []struct {
		name string
		req  BuildRequest
		want string
	}{
		{
			name: "with glibc",
			req:  BuildRequest{GCCVersion: "14.2.0", GlibcVersion: "2.35"},
			want: "14.2.0+glibc2.35",
		},
		{
			name: "without glibc",
			req:  BuildRequest{GCCVersion: "14.2.0"},
			want: "14.2.0+glibc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.versionTag())
		})
	}
}

func TestNewBuildRequest(t *testing.T) {
	cfg := setupTestConfig(t)

	// CLI arguments win over config
	cfg.Values["TATARA_GCC_VERSION"] = "13.1.0"
	req, err := newBuildRequest(cfg, []string{"14.2.0", "2.35"})
	require.NoError(t, err)
	assert.Equal(t, "14.2.0", req.GCCVersion)
	assert.Equal(t, "2.35", req.GlibcVersion)

	// Config alone is enough
	req, err = newBuildRequest(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "13.1.0", req.GCCVersion)
	assert.Empty(t, req.GlibcVersion)

	// Jobs and languages come from config
	cfg.Values["TATARA_JOBS"] = "7"
	cfg.Values["TATARA_LANGUAGES"] = "c, c++, fortran"
	req, err = newBuildRequest(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, req.Jobs)
	assert.Equal(t, []string{"c", "c++", "fortran"}, req.Languages)

	// Bad jobs value is rejected
	cfg.Values["TATARA_JOBS"] = "many"
	_, err = newBuildRequest(cfg, nil)
	require.Error(t, err)
}

func TestNewBuildRequestFailsBeforeAnyWork(t *testing.T) {
	cfg := setupTestConfig(t)

	_, err := newBuildRequest(cfg, []string{"latest"})
	require.Error(t, err)

	// Nothing may have been created under the work tree
	assert.NoDirExists(t, srcDir)
	assert.NoDirExists(t, buildRootDir)
	assert.NoDirExists(t, pkgRootDir)
}
