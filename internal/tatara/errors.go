package tatara

import "fmt"

// Failure reasons for the fetch stage.
type FetchReason string

const (
	FetchNotFound       FetchReason = "not found"
	FetchNetworkFailure FetchReason = "network failure"
	FetchExtractFailure FetchReason = "extract failure"
)

// FetchError is fatal to the whole pipeline; there are no retries.
type FetchError struct {
	Name   string
	Reason FetchReason
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Name, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Build phases, in execution order.
type BuildPhase string

const (
	PhaseConfigure BuildPhase = "configure"
	PhaseCompile   BuildPhase = "compile"
	PhaseInstall   BuildPhase = "install"
)

// BuildError carries the failed phase and the path of the captured tool
// output so callers can surface it.
type BuildError struct {
	Name    string
	Phase   BuildPhase
	LogPath string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %s phase failed: %v (log: %s)", e.Name, e.Phase, e.Err, e.LogPath)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Failure reasons for the staging stage.
type StageReason string

const (
	StageCopyFailure      StageReason = "copy failure"
	StageHookWriteFailure StageReason = "hook write failure"
)

type StageError struct {
	Reason StageReason
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage: %s: %v", e.Reason, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PackageError wraps a failure of the native archive builder. The previous
// artifact was already removed at this point, so no artifact remains.
type PackageError struct {
	Err error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("package: archive builder failed: %v", e.Err)
}

func (e *PackageError) Unwrap() error { return e.Err }
