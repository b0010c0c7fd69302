package tatara

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load /etc/tatara.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge TATARA_* env overrides
	mergeEnvOverrides(cfg)

	// Ensure TMPDIR has a default
	if tmp := cfg.Values["TMPDIR"]; tmp == "" {
		cfg.Values["TMPDIR"] = "/tmp"
	}

	return cfg, nil
}

// Merge TATARA_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "TATARA_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}

	// GNU_MIRROR is honored from the environment too, without overwriting
	// an explicit config file value.
	if mirror := os.Getenv("GNU_MIRROR"); mirror != "" {
		if _, exists := cfg.Values["GNU_MIRROR"]; !exists {
			cfg.Values["GNU_MIRROR"] = mirror
		}
	}
}

func initConfig(cfg *Config) {
	CacheDir = cfg.Values["TATARA_CACHE_DIR"]
	if CacheDir == "" {
		CacheDir = "/var/cache/tatara"
	}

	workDir = cfg.Values["TATARA_WORK_DIR"]
	if workDir == "" {
		workDir = filepath.Join(cfg.Values["TMPDIR"], "tatara")
	}

	prefixRoot = cfg.Values["TATARA_PREFIX_ROOT"]
	if prefixRoot == "" {
		prefixRoot = "/opt"
	}

	outputDir = cfg.Values["TATARA_OUTPUT_DIR"]
	if outputDir == "" {
		// Container convention: /out is the operator-supplied output mount.
		if info, err := os.Stat("/out"); err == nil && info.IsDir() {
			outputDir = "/out"
		}
	}

	Debug = cfg.Values["TATARA_DEBUG"] == "1"
	Verbose = cfg.Values["TATARA_VERBOSE"] == "1"

	// Load the GNU mirror URL if it's set in the config
	if mirror, exists := cfg.Values["GNU_MIRROR"]; exists && mirror != "" {
		gnuMirrorURL = strings.TrimRight(mirror, "/")
		debugf("=> Using GNU mirror from config: %s\n", gnuMirrorURL)
	}

	// Set a default mirror if none was provided by the user
	if gnuMirrorURL == "" {
		// mirrors.kernel.org is a reliable and globally distributed mirror.
		gnuMirrorURL = "https://mirrors.kernel.org/gnu"
		debugf("=> No GNU mirror configured, using default: %s\n", gnuMirrorURL)
	}

	CacheStore = filepath.Join(CacheDir, "sources")
	ArtifactDir = filepath.Join(CacheDir, "artifacts")
	srcDir = filepath.Join(workDir, "src")
	buildRootDir = filepath.Join(workDir, "build")
	logDir = filepath.Join(workDir, "log")
	pkgRootDir = filepath.Join(workDir, "pkgroot")
}
