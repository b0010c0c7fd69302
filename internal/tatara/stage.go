package tatara

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const pkgName = "gcc-toolchain"

// PackageMeta is the control record written into the packaging root.
// Rendering is pure: identical runs produce byte-identical metadata.
type PackageMeta struct {
	Name            string
	Version         string
	Architecture    string
	InstalledSizeKB int64
	GCCPrefix       string
	GlibcPrefix     string
	GCCVersion      string
	GlibcVersion    string
}

// PackagingRoot mirrors the final installed filesystem layout plus the
// DEBIAN control directory. Built once per run, consumed once by the
// packager.
type PackagingRoot struct {
	Path string
	Meta PackageMeta
}

// debArch asks dpkg for the target architecture, with a runtime.GOARCH
// mapping as fallback for hosts without dpkg.
func debArch() string {
	if _, err := exec.LookPath("dpkg"); err == nil {
		out, err := exec.Command("dpkg", "--print-architecture").Output()
		if err == nil {
			if arch := strings.TrimSpace(string(out)); arch != "" {
				return arch
			}
		}
	}
	switch runtime.GOARCH {
	case "amd64":
		return "amd64"
	case "arm64":
		return "arm64"
	case "386":
		return "i386"
	case "arm":
		return "armhf"
	default:
		return runtime.GOARCH
	}
}

// renderControl produces the DEBIAN/control file content.
func renderControl(m PackageMeta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s\n", m.Name)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Architecture: %s\n", m.Architecture)
	fmt.Fprintf(&b, "Maintainer: tatara builder <root@localhost>\n")
	fmt.Fprintf(&b, "Installed-Size: %d\n", m.InstalledSizeKB)
	fmt.Fprintf(&b, "Section: devel\n")
	fmt.Fprintf(&b, "Priority: optional\n")
	fmt.Fprintf(&b, "Description: GCC toolchain built from source\n")
	fmt.Fprintf(&b, " GCC %s installed under %s.\n", m.GCCVersion, m.GCCPrefix)
	if m.GlibcVersion != "" {
		fmt.Fprintf(&b, " glibc %s installed under %s.\n", m.GlibcVersion, m.GlibcPrefix)
	}
	return b.String()
}

// profileFragmentPath is where the post-install hook drops the shell-profile
// fragment that puts the toolchain on interactive search paths.
func profileFragmentPath(gccVersion string) string {
	return fmt.Sprintf("/etc/profile.d/gcc-%s.sh", gccVersion)
}

// renderPostInst produces the post-install hook: refresh the dynamic-linker
// cache, then export the compiler's bin/lib dirs for interactive shells.
func renderPostInst(m PackageMeta) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("set -e\n")
	b.WriteString("\n")
	b.WriteString("ldconfig\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "if [ -d %s ]; then\n", m.GCCPrefix)
	fmt.Fprintf(&b, "    cat > %s <<'EOF'\n", profileFragmentPath(m.GCCVersion))
	fmt.Fprintf(&b, "export PATH=\"%s/bin:$PATH\"\n", m.GCCPrefix)
	fmt.Fprintf(&b, "export LD_LIBRARY_PATH=\"%s/lib64:%s/lib:$LD_LIBRARY_PATH\"\n", m.GCCPrefix, m.GCCPrefix)
	b.WriteString("EOF\n")
	b.WriteString("fi\n")
	b.WriteString("\n")
	b.WriteString("exit 0\n")
	return b.String()
}

// renderPreRm produces the pre-removal hook that deletes the profile
// fragment again.
func renderPreRm(m PackageMeta) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("set -e\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "rm -f %s\n", profileFragmentPath(m.GCCVersion))
	b.WriteString("\n")
	b.WriteString("exit 0\n")
	return b.String()
}

// stage assembles a clean packaging root from the install prefixes. Each
// prefix is copied all-or-nothing: into a partial sibling first, renamed
// into place only when the whole copy succeeded. The glibc subtree appears
// only when its prefix was actually built.
func stage(prefixes []*InstallPrefix, req *BuildRequest) (*PackagingRoot, error) {
	if err := os.RemoveAll(pkgRootDir); err != nil {
		return nil, &StageError{Reason: StageCopyFailure, Err: err}
	}
	if err := os.MkdirAll(pkgRootDir, 0o755); err != nil {
		return nil, &StageError{Reason: StageCopyFailure, Err: err}
	}

	meta := PackageMeta{
		Name:         pkgName,
		Version:      req.versionTag(),
		Architecture: debArch(),
		GCCPrefix:    gccPrefixPath(req.GCCVersion),
		GCCVersion:   req.GCCVersion,
		GlibcVersion: req.GlibcVersion,
	}
	if req.GlibcVersion != "" {
		meta.GlibcPrefix = glibcPrefixPath(req.GlibcVersion)
	}

	for _, prefix := range prefixes {
		if prefix == nil {
			continue
		}
		dest := filepath.Join(pkgRootDir, strings.TrimPrefix(prefix.Path, "/"))
		partial := dest + ".partial"

		arrowf("Staging %s\n", prefix.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, &StageError{Reason: StageCopyFailure, Err: err}
		}
		if err := os.RemoveAll(partial); err != nil {
			return nil, &StageError{Reason: StageCopyFailure, Err: err}
		}
		if err := copyTree(prefix.Path, partial); err != nil {
			_ = os.RemoveAll(partial)
			return nil, &StageError{Reason: StageCopyFailure, Err: fmt.Errorf("copying %s: %w", prefix.Path, err)}
		}
		if err := os.Rename(partial, dest); err != nil {
			_ = os.RemoveAll(partial)
			return nil, &StageError{Reason: StageCopyFailure, Err: err}
		}
	}

	// Normalize permission bits across the payload before the control
	// directory exists, so hook modes are not clobbered.
	if err := normalizePerms(pkgRootDir); err != nil {
		return nil, &StageError{Reason: StageCopyFailure, Err: err}
	}

	sizeKB, err := dirSizeKB(pkgRootDir)
	if err != nil {
		return nil, &StageError{Reason: StageCopyFailure, Err: err}
	}
	meta.InstalledSizeKB = sizeKB

	debianDir := filepath.Join(pkgRootDir, "DEBIAN")
	if err := os.MkdirAll(debianDir, 0o755); err != nil {
		return nil, &StageError{Reason: StageHookWriteFailure, Err: err}
	}

	files := []struct {
		name    string
		content string
		mode    os.FileMode
	}{
		{"control", renderControl(meta), 0o644},
		{"postinst", renderPostInst(meta), 0o755},
		{"prerm", renderPreRm(meta), 0o755},
	}
	for _, f := range files {
		path := filepath.Join(debianDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), f.mode); err != nil {
			return nil, &StageError{Reason: StageHookWriteFailure, Err: err}
		}
		// WriteFile honors umask; force the mode
		if err := os.Chmod(path, f.mode); err != nil {
			return nil, &StageError{Reason: StageHookWriteFailure, Err: err}
		}
	}

	return &PackagingRoot{Path: pkgRootDir, Meta: meta}, nil
}
