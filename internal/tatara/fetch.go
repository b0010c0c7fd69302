package tatara

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// SourceTree is an extracted source archive, ready for the builder.
// Never mutated after extraction.
type SourceTree struct {
	Name          string
	Version       string
	ExtractedPath string
}

// sourceURL resolves the canonical GNU download URL for a known source.
func sourceURL(name, version string) (string, error) {
	switch name {
	case "gcc":
		return fmt.Sprintf("%s/gcc/gcc-%s/gcc-%s.tar.xz", gnuOriginalURL, version, version), nil
	case "glibc":
		return fmt.Sprintf("%s/glibc/glibc-%s.tar.xz", gnuOriginalURL, version), nil
	default:
		return "", fmt.Errorf("unknown source name %q", name)
	}
}

// applyGnuMirror checks if a URL is a canonical GNU URL and replaces it with
// the configured mirror. It returns the (potentially modified) URL.
func applyGnuMirror(originalURL string) string {
	if gnuMirrorURL != "" && strings.HasPrefix(originalURL, gnuOriginalURL) {
		return strings.Replace(originalURL, gnuOriginalURL, gnuMirrorURL, 1)
	}
	return originalURL
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Default handshake timeout is 10s; GNU mirrors can be slow.
	transport.TLSHandshakeTimeout = 30 * time.Second
	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Minute, // gcc tarballs are ~90MB; allow slow links
	}
}

// downloadFile downloads finalURL into absPath. It prefers curl, falls back
// to wget, then to the native HTTP client. The download is guarded by an
// exclusive flock so concurrent runs sharing the cache don't collide.
func downloadFile(finalURL, absPath string) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", absPath, err)
	}
	lockPath := absPath + ".lock"

	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// Another run may have finished the download while we waited for the lock.
	if _, err := os.Stat(absPath); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", absPath)
		_ = os.Remove(lockPath)
		return nil
	}

	defer func() {
		if _, err := os.Stat(absPath); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	debugf("Downloading %s -> %s\n", finalURL, absPath)

	// --- Primary choice: curl ---
	if _, err := exec.LookPath("curl"); err == nil {
		curlArgs := []string{"-L", "--fail", "-o", absPath}
		if Verbose {
			curlArgs = append(curlArgs, "-#")
		} else {
			curlArgs = append(curlArgs, "-sS")
		}
		curlArgs = append(curlArgs, finalURL)
		cmd := exec.Command("curl", curlArgs...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with curl.\n")
			return nil
		}
		debugf("curl failed, falling back to wget\n")
	} else {
		debugf("curl not found, trying wget\n")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		cmd := exec.Command("wget", "-nv", "-O", absPath, finalURL)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("Download successful with wget.\n")
			return nil
		}
		debugf("wget failed, falling back to native Go HTTP client\n")
	} else {
		debugf("wget not found, using native Go HTTP client\n")
	}

	// --- Fallback 2: native Go HTTP client ---
	client := newHTTPClient()

	resp, err := client.Get(finalURL)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_ = os.Remove(absPath)
		return &httpStatusError{Status: resp.Status, Code: resp.StatusCode}
	}

	out, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", absPath, err)
	}
	defer out.Close()

	var dst io.Writer = out
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(absPath))
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}

	debugf("Download successful with native Go HTTP client.\n")
	return nil
}

// httpStatusError lets the fetcher classify a missing upstream release
// separately from transport failures.
type httpStatusError struct {
	Status string
	Code   int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("download failed with status: %s", e.Status)
}

// headStatus probes a URL so a missing release is reported as NotFound even
// when the curl/wget download path ate the underlying status code.
func headStatus(url string) (int, error) {
	client := newHTTPClient()
	resp, err := client.Head(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// classifyDownloadError maps a download failure onto the fetch taxonomy.
func classifyDownloadError(url string, err error) FetchReason {
	if hse, ok := err.(*httpStatusError); ok {
		if hse.Code == http.StatusNotFound || hse.Code == http.StatusForbidden || hse.Code == http.StatusGone {
			return FetchNotFound
		}
		return FetchNetworkFailure
	}
	// curl and wget don't report the status; probe once ourselves.
	if code, herr := headStatus(url); herr == nil {
		if code == http.StatusNotFound || code == http.StatusForbidden || code == http.StatusGone {
			return FetchNotFound
		}
	}
	return FetchNetworkFailure
}

// fetchSource downloads and extracts one named source archive into its fixed
// alias directory (<work>/src/<name>), so later steps never branch on the
// version string. Downloads are cached across runs keyed by url+version.
func fetchSource(name, version string, cfg *Config) (*SourceTree, error) {
	url, err := sourceURL(name, version)
	if err != nil {
		return nil, &FetchError{Name: name, Reason: FetchNotFound, Err: err}
	}
	finalURL := applyGnuMirror(url)
	if finalURL != url {
		debugf("Using GNU mirror: %s\n", gnuMirrorURL)
	}

	origFilename := filepath.Base(url)

	// Version-aware cache key, so a re-pinned version busts the cache even
	// if the filename were to stay the same.
	hashName := fmt.Sprintf("%s-%s", hashString(url+version), origFilename)
	cachePath := filepath.Join(CacheStore, hashName)

	if err := os.MkdirAll(CacheStore, 0o755); err != nil {
		return nil, &FetchError{Name: name, Reason: FetchNetworkFailure, Err: err}
	}

	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		arrowf("Fetching source: %s\n", origFilename)
		if err := downloadFile(finalURL, cachePath); err != nil {
			_ = os.Remove(cachePath)
			return nil, &FetchError{Name: name, Reason: classifyDownloadError(finalURL, err), Err: err}
		}
	} else {
		debugf("Already in cache: %s\n", cachePath)
	}

	// Optional pinned checksum from config (TATARA_GCC_B3SUM / TATARA_GLIBC_B3SUM)
	expected := cfg.Values[fmt.Sprintf("TATARA_%s_B3SUM", strings.ToUpper(name))]
	if err := verifyTarball(cachePath, expected); err != nil {
		return nil, &FetchError{Name: name, Reason: FetchExtractFailure, Err: err}
	}

	dest := filepath.Join(srcDir, name)
	if err := os.RemoveAll(dest); err != nil {
		return nil, &FetchError{Name: name, Reason: FetchExtractFailure, Err: err}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, &FetchError{Name: name, Reason: FetchExtractFailure, Err: err}
	}

	arrowf("Extracting %s\n", origFilename)
	if err := extractTar(cachePath, dest); err != nil {
		return nil, &FetchError{Name: name, Reason: FetchExtractFailure, Err: err}
	}

	return &SourceTree{Name: name, Version: version, ExtractedPath: dest}, nil
}
