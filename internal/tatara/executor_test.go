package tatara

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRun(t *testing.T) {
	var out bytes.Buffer
	cmd := exec.Command("sh", "-c", "echo hello")
	cmd.Stdout = &out

	require.NoError(t, testExecutor().Run(cmd))
	assert.Equal(t, "hello\n", out.String())
}

func TestExecutorRunPropagatesExitCode(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 7")
	err := testExecutor().Run(cmd)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, exitErr.ExitCode())
}

func TestExecutorRunUsesCommandEnv(t *testing.T) {
	var out bytes.Buffer
	cmd := exec.Command("sh", "-c", `printf "%s" "$PROBE"`)
	cmd.Stdout = &out
	cmd.Env = []string{"PROBE=isolated", "PATH=/usr/bin:/bin"}

	require.NoError(t, testExecutor().Run(cmd))
	assert.Equal(t, "isolated", out.String())
}

func TestExecutorRunAbortsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{Context: ctx}

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := e.Run(exec.Command("sleep", "10"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
	assert.Less(t, time.Since(start), 5*time.Second)
}
