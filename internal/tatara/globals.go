package tatara

import (
	"runtime"

	"github.com/gookit/color"
)

// Global variables
var (
	CacheDir       string
	CacheStore     string
	ArtifactDir    string
	workDir        string
	srcDir         string
	buildRootDir   string
	logDir         string
	pkgRootDir     string
	prefixRoot     string
	outputDir      string
	Debug          bool
	Verbose        bool
	ConfigFile     = "/etc/tatara.conf"
	gnuMirrorURL   string
	gnuOriginalURL = "https://ftp.gnu.org/gnu"
	version        = "dev"     // overridden at build time
	buildDate      = "unknown" // overridden at build time
	hostArch       = runtime.GOARCH
	// Global executors (assigned during CLI setup)
	UserExec *Executor
	RootExec *Executor
)

// color helpers
var (
	colInfo    = color.Info
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
