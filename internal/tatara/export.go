package tatara

import (
	"context"
	"os"
	"path/filepath"
)

// ExportResult reports where the artifact ended up. Export never fails the
// pipeline; everything here degrades to an informational message.
type ExportResult struct {
	Copied   bool
	Uploaded bool
	Path     string
}

// export copies the artifact to the operator-supplied output directory when
// one is available, and optionally uploads it to the configured S3 bucket.
// On any trouble it falls back to reporting the artifact's in-place path.
func export(ctx context.Context, artifact *Artifact, cfg *Config) ExportResult {
	result := ExportResult{Path: artifact.FilePath}

	if outputDir != "" {
		if info, err := os.Stat(outputDir); err == nil && info.IsDir() {
			dest := filepath.Join(outputDir, filepath.Base(artifact.FilePath))
			if err := copyFile(artifact.FilePath, dest); err != nil {
				colWarn.Printf("failed to copy artifact to %s: %v\n", outputDir, err)
			} else {
				arrowf("Artifact exported to %s\n", dest)
				result.Copied = true
				result.Path = dest
			}
		} else {
			colWarn.Printf("output directory %s not available, skipping copy\n", outputDir)
		}
	}

	if !result.Copied {
		arrowf("Artifact available at %s\n", artifact.FilePath)
	}

	store, err := newRemoteStore(cfg)
	if err != nil {
		colWarn.Printf("artifact upload disabled: %v\n", err)
		return result
	}
	if store != nil {
		key := filepath.Base(artifact.FilePath)
		arrowf("Uploading %s to bucket %s\n", key, store.BucketName)
		if err := store.UploadLocalFile(ctx, key, artifact.FilePath); err != nil {
			colWarn.Printf("artifact upload failed: %v\n", err)
		} else {
			result.Uploaded = true
		}
	}

	return result
}
