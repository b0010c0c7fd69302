package tatara

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// ensurePrefixRoot makes sure the install-prefix root exists, escalating
// only when the native mkdir is refused.
func ensurePrefixRoot() error {
	if err := os.MkdirAll(prefixRoot, 0o755); err == nil {
		return nil
	}
	mkdirCmd := exec.Command("mkdir", "-p", prefixRoot)
	if err := RootExec.Run(mkdirCmd); err != nil {
		return fmt.Errorf("failed to create prefix root %s: %w", prefixRoot, err)
	}
	return nil
}

// runPipeline executes the whole linear flow: fetch -> build(gcc) ->
// build(glibc, optional) -> stage -> package -> export. The first failure
// aborts everything; only the export step is allowed to degrade.
func runPipeline(ctx context.Context, cfg *Config, req *BuildRequest) error {
	for _, dir := range []string{srcDir, buildRootDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create working dir %s: %v", dir, err)
		}
	}
	if err := ensurePrefixRoot(); err != nil {
		return err
	}

	arrowf("Building gcc %s", req.GCCVersion)
	if req.GlibcVersion != "" {
		colSuccess.Printf(" + glibc %s", req.GlibcVersion)
	}
	colSuccess.Printf(" (%d jobs)\n", req.Jobs)

	// --- Fetch ---
	gccTree, err := fetchSource("gcc", req.GCCVersion, cfg)
	if err != nil {
		return err
	}

	var glibcTree *SourceTree
	if req.GlibcVersion != "" {
		glibcTree, err = fetchSource("glibc", req.GlibcVersion, cfg)
		if err != nil {
			return err
		}
	} else {
		debugf("No glibc version requested, skipping runtime-library steps\n")
	}

	// --- Build ---
	gccPrefix, err := buildSource(gccTree, gccPrefixPath(req.GCCVersion), req, UserExec)
	if err != nil {
		return err
	}

	var glibcPrefix *InstallPrefix
	if glibcTree != nil {
		glibcPrefix, err = buildSource(glibcTree, glibcPrefixPath(req.GlibcVersion), req, UserExec)
		if err != nil {
			return err
		}
	}

	// --- Stage ---
	prefixes := []*InstallPrefix{gccPrefix}
	names := []string{"gcc"}
	if glibcPrefix != nil {
		prefixes = append(prefixes, glibcPrefix)
		names = append(names, "glibc")
	}

	root, err := stage(prefixes, req)
	if err != nil {
		return err
	}

	// --- Package ---
	artifact, err := buildDeb(root, req, UserExec)
	if err != nil {
		return err
	}

	archiveBuildLogs(names)

	// --- Export (never fatal) ---
	export(ctx, artifact, cfg)

	arrowf("Done: %s version %s\n", artifact.FilePath, artifact.VersionTag)
	return nil
}
