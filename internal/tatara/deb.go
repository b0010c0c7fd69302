package tatara

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Artifact is the final immutable output of the pipeline.
type Artifact struct {
	FilePath   string
	VersionTag string
}

// artifactName is deterministic from the compiler version and target
// architecture: gcc-toolchain_14.2.0_amd64.deb
func artifactName(gccVersion, arch string) string {
	return fmt.Sprintf("%s_%s_%s.deb", pkgName, gccVersion, arch)
}

// buildDeb invokes dpkg-deb against the packaging root. Any pre-existing
// artifact at the output path is removed first; a failure here therefore
// leaves no artifact at all, which is the accepted tradeoff for a pipeline
// where reruns are cheap.
func buildDeb(root *PackagingRoot, req *BuildRequest, execCtx *Executor) (*Artifact, error) {
	if err := os.MkdirAll(ArtifactDir, 0o755); err != nil {
		return nil, &PackageError{Err: err}
	}

	outPath := filepath.Join(ArtifactDir, artifactName(req.GCCVersion, root.Meta.Architecture))

	if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
		return nil, &PackageError{Err: fmt.Errorf("failed to remove stale artifact %s: %w", outPath, err)}
	}

	arrowf("Building package %s\n", filepath.Base(outPath))

	cmd := exec.Command("dpkg-deb", "--build", "--root-owner-group", root.Path, outPath)
	if err := execCtx.Run(cmd); err != nil {
		return nil, &PackageError{Err: err}
	}

	arrowf("Package built successfully: %s\n", outPath)
	return &Artifact{FilePath: outPath, VersionTag: root.Meta.Version}, nil
}
