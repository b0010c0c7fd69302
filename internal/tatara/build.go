package tatara

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
)

// InstallPrefix is a self-contained directory tree produced by one build.
// Derived deterministically from name+version; read-only after the build.
type InstallPrefix struct {
	Name    string
	Version string
	Path    string
}

func gccPrefixPath(version string) string {
	return filepath.Join(prefixRoot, "gcc-"+version)
}

func glibcPrefixPath(version string) string {
	return filepath.Join(prefixRoot, "glibc-"+version)
}

// gccConfigureArgs assembles the configure invocation for the compiler.
// Multilib stays disabled: the package targets a single ABI and the lib32
// pieces roughly double the build time.
func gccConfigureArgs(prefix string, languages []string) []string {
	return []string{
		"--prefix=" + prefix,
		"--enable-languages=" + strings.Join(languages, ","),
		"--disable-multilib",
		"--enable-threads=posix",
		"--with-system-zlib",
	}
}

// glibcConfigureArgs assembles the configure invocation for the runtime
// library. The flag set is intentionally narrow; this build is fragile and
// installs fully isolated from the host libc.
func glibcConfigureArgs(prefix string) []string {
	return []string{
		"--prefix=" + prefix,
		"--enable-obsolete-rpc",
		"--with-tls",
		"--disable-werror",
	}
}

// buildEnv returns the build environment with host CFLAGS/CXXFLAGS/LDFLAGS
// filtered out, so stray host optimization flags can't poison the bootstrap.
func buildEnv() []string {
	env := []string{}
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "CFLAGS=") || strings.HasPrefix(e, "CXXFLAGS=") || strings.HasPrefix(e, "LDFLAGS=") {
			continue
		}
		env = append(env, e)
	}
	env = append(env, "LC_ALL=POSIX")
	return env
}

// downloadPrerequisites runs gcc's own prerequisite fetch script. This is
// best-effort: prerequisites are usually satisfied by system packages, and a
// real gap will surface in configure. The failure is still logged distinctly
// so operators can tell a swallowed failure from a clean skip.
func downloadPrerequisites(tree *SourceTree, execCtx *Executor) {
	script := filepath.Join(tree.ExtractedPath, "contrib", "download_prerequisites")
	if _, err := os.Stat(script); err != nil {
		debugf("No prerequisite script for %s, skipping\n", tree.Name)
		return
	}

	arrowf("Fetching declared prerequisites for %s\n", tree.Name)

	logPath := filepath.Join(logDir, tree.Name+"-prerequisites.log")
	logFile, err := os.Create(logPath)
	if err != nil {
		colWarn.Printf("prerequisite fetch skipped: cannot create log %s: %v\n", logPath, err)
		return
	}
	defer logFile.Close()

	cmd := exec.Command("./contrib/download_prerequisites")
	cmd.Dir = tree.ExtractedPath
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = buildEnv()
	if err := execCtx.Run(cmd); err != nil {
		// Swallowed on purpose; configure is the real gatekeeper.
		colWarn.Printf("prerequisite fetch failed (continuing): %v (log: %s)\n", err, logPath)
	}
}

// buildSource runs the three-phase external sequence for one source tree:
// configure, compile, install. The compiler uses a full bootstrap so the
// toolchain validates itself before installing.
func buildSource(tree *SourceTree, prefixPath string, req *BuildRequest, execCtx *Executor) (*InstallPrefix, error) {
	startTime := time.Now()

	buildDir := filepath.Join(buildRootDir, tree.Name)
	if err := os.RemoveAll(buildDir); err != nil {
		return nil, &BuildError{Name: tree.Name, Phase: PhaseConfigure, Err: fmt.Errorf("failed to clean build dir: %w", err)}
	}
	for _, dir := range []string{buildDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &BuildError{Name: tree.Name, Phase: PhaseConfigure, Err: fmt.Errorf("failed to create dir %s: %w", dir, err)}
		}
	}

	if tree.Name == "gcc" {
		downloadPrerequisites(tree, execCtx)
	}

	// --- Configure ---
	configure := filepath.Join(tree.ExtractedPath, "configure")
	var args []string
	switch tree.Name {
	case "gcc":
		args = gccConfigureArgs(prefixPath, req.Languages)
	case "glibc":
		args = glibcConfigureArgs(prefixPath)
	default:
		return nil, &BuildError{Name: tree.Name, Phase: PhaseConfigure, Err: fmt.Errorf("no configure profile for %q", tree.Name)}
	}

	arrowf("Configuring %s (%s)\n", tree.Name, prefixPath)
	confLog := filepath.Join(logDir, tree.Name+"-configure.log")
	if err := runPhase(execCtx, buildDir, confLog, configure, args...); err != nil {
		// Configure is the step most likely to fail on environment or
		// dependency mismatches; show the whole log before aborting.
		surfaceConfigureLog(tree.Name, confLog)
		return nil, &BuildError{Name: tree.Name, Phase: PhaseConfigure, LogPath: confLog, Err: err}
	}

	// --- Compile ---
	makeArgs := []string{fmt.Sprintf("-j%d", req.Jobs)}
	if tree.Name == "gcc" {
		makeArgs = append(makeArgs, "bootstrap")
		arrowf("Bootstrapping %s with %d jobs (this is the long one)\n", tree.Name, req.Jobs)
	} else {
		arrowf("Compiling %s with %d jobs\n", tree.Name, req.Jobs)
	}
	compileLog := filepath.Join(logDir, tree.Name+"-compile.log")
	if err := runPhaseWithTicker(execCtx, buildDir, compileLog, tree.Name, startTime, "make", makeArgs...); err != nil {
		tailLog(compileLog, 50)
		return nil, &BuildError{Name: tree.Name, Phase: PhaseCompile, LogPath: compileLog, Err: err}
	}

	// --- Install ---
	arrowf("Installing %s into %s\n", tree.Name, prefixPath)
	installLog := filepath.Join(logDir, tree.Name+"-install.log")
	if err := runPhase(execCtx, buildDir, installLog, "make", "install"); err != nil {
		tailLog(installLog, 50)
		return nil, &BuildError{Name: tree.Name, Phase: PhaseInstall, LogPath: installLog, Err: err}
	}

	elapsed := time.Since(startTime).Truncate(time.Second)
	arrowf("Built %s %s in %s\n", tree.Name, tree.Version, elapsed)

	return &InstallPrefix{Name: tree.Name, Version: tree.Version, Path: prefixPath}, nil
}

// runPhase executes one external phase with its output captured to logPath.
// Verbose mode additionally streams to stdout.
func runPhase(execCtx *Executor, dir, logPath, prog string, args ...string) error {
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	var w io.Writer = logFile
	if Verbose || Debug {
		w = io.MultiWriter(os.Stdout, logFile)
	}

	cmd := exec.Command(prog, args...)
	cmd.Dir = dir
	cmd.Stdout = w
	cmd.Stderr = w
	cmd.Env = buildEnv()
	return execCtx.Run(cmd)
}

// runPhaseWithTicker is runPhase plus a once-a-second elapsed-time line, so
// a multi-hour bootstrap doesn't look hung on a quiet terminal.
func runPhaseWithTicker(execCtx *Executor, dir, logPath, name string, startTime time.Time, prog string, args ...string) error {
	doneCh := make(chan struct{})
	var wg sync.WaitGroup

	if !Verbose && !Debug {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					elapsed := time.Since(startTime).Truncate(time.Second)
					colArrow.Print("-> ")
					colSuccess.Printf("Building %s elapsed: %s\r", name, elapsed)
				case <-doneCh:
					fmt.Print("\r")
					return
				case <-execCtx.Context.Done():
					return
				}
			}
		}()
	}

	err := runPhase(execCtx, dir, logPath, prog, args...)
	close(doneCh)
	wg.Wait()
	return err
}

// surfaceConfigureLog dumps the full captured configure output, through the
// pager on a TTY. This is the primary diagnostic surface of the pipeline.
func surfaceConfigureLog(name, logPath string) {
	colArrow.Print("-> ")
	color.Danger.Printf("Configure failed for %s, full log follows (%s)\n", name, logPath)

	data, err := os.ReadFile(logPath)
	if err != nil {
		colError.Printf("could not read configure log: %v\n", err)
		return
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if err := RunPager(fmt.Sprintf("configure log: %s", name), lines); err != nil {
		// Pager trouble must not hide the log
		for _, line := range lines {
			fmt.Println(line)
		}
	}
}

// tailLog prints the last n lines of a log without blocking.
func tailLog(logPath string, n int) {
	if _, err := exec.LookPath("tail"); err == nil {
		cmd := exec.Command("tail", "-n", fmt.Sprint(n), logPath)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if cmd.Run() == nil {
			return
		}
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		return
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}

// archiveBuildLogs compresses the phase logs next to the artifact so a
// successful run keeps its own provenance.
func archiveBuildLogs(names []string) {
	for _, name := range names {
		src := filepath.Join(logDir, name+"-compile.log")
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dest := filepath.Join(ArtifactDir, name+"-compile.log.xz")
		if err := compressXZ(src, dest); err != nil {
			colWarn.Printf("failed to compress build log for %s: %v\n", name, err)
		}
	}
}
