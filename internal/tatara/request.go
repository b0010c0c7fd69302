package tatara

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// BuildRequest describes a single pipeline run. GCCVersion is mandatory;
// an empty GlibcVersion disables every runtime-library step.
type BuildRequest struct {
	GCCVersion   string
	GlibcVersion string
	Jobs         int
	Languages    []string
}

// newBuildRequest assembles a request from CLI arguments and config values.
// CLI arguments win over config.
func newBuildRequest(cfg *Config, args []string) (*BuildRequest, error) {
	req := &BuildRequest{
		GCCVersion:   cfg.Values["TATARA_GCC_VERSION"],
		GlibcVersion: cfg.Values["TATARA_GLIBC_VERSION"],
	}
	if len(args) >= 1 {
		req.GCCVersion = args[0]
	}
	if len(args) >= 2 {
		req.GlibcVersion = args[1]
	}

	if jobs := cfg.Values["TATARA_JOBS"]; jobs != "" {
		n, err := strconv.Atoi(jobs)
		if err != nil {
			return nil, fmt.Errorf("invalid TATARA_JOBS value %q: %v", jobs, err)
		}
		req.Jobs = n
	}

	if langs := cfg.Values["TATARA_LANGUAGES"]; langs != "" {
		for _, l := range strings.Split(langs, ",") {
			l = strings.TrimSpace(l)
			if l != "" {
				req.Languages = append(req.Languages, l)
			}
		}
	}

	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// validate applies defaults and rejects requests that must fail before any
// network or build step runs.
func (r *BuildRequest) validate() error {
	if strings.TrimSpace(r.GCCVersion) == "" {
		return fmt.Errorf("gcc version is required (set TATARA_GCC_VERSION or pass it as an argument)")
	}
	if r.GCCVersion == "latest" {
		return fmt.Errorf("gcc version %q is not accepted; pin an exact release (e.g. 14.2.0)", r.GCCVersion)
	}
	if r.Jobs < 0 {
		return fmt.Errorf("jobs must be a positive integer, got %d", r.Jobs)
	}
	if r.Jobs == 0 {
		r.Jobs = runtime.NumCPU()
	}
	if len(r.Languages) == 0 {
		r.Languages = []string{"c", "c++"}
	}
	return nil
}

// versionTag is the package version string combining both components.
// An absent glibc leaves the suffix empty: "14.2.0+glibc".
func (r *BuildRequest) versionTag() string {
	return fmt.Sprintf("%s+glibc%s", r.GCCVersion, r.GlibcVersion)
}
