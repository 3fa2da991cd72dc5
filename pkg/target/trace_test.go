package target

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not found: %v", name, err)
	}
	return path
}

// launch starts path under trace, skipping the test when the environment
// doesn't permit ptrace.
func launch(t *testing.T, path string, args ...string) *Process {
	t.Helper()
	l := &Launcher{}
	p, err := l.Launch(path, args)
	if errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace not permitted: %v", err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Kill() })
	return p
}

func TestLaunch_initialStopThenExit(t *testing.T) {
	p := launch(t, lookPath(t, "true"))
	assert.NotZero(t, p.Pid())
	assert.Equal(t, EXEC, p.Kind)

	status, err := p.AwaitStop()
	require.NoError(t, err)
	ev := Classify(status)
	require.Equal(t, EventStopped, ev.Kind)
	assert.Equal(t, unix.SIGTRAP, ev.Signal)
	assert.True(t, InTraceStop(p.Pid()))

	require.NoError(t, p.Resume())

	status, err = p.AwaitStop()
	require.NoError(t, err)
	ev = Classify(status)
	assert.Equal(t, EventExited, ev.Kind)
	assert.Equal(t, 0, ev.ExitCode)
	assert.True(t, p.Reaped())
}

func TestResume_afterExit(t *testing.T) {
	p := launch(t, lookPath(t, "true"))

	_, err := p.AwaitStop()
	require.NoError(t, err)
	require.NoError(t, p.Resume())
	_, err = p.AwaitStop()
	require.NoError(t, err)

	err = p.Resume()
	assert.ErrorIs(t, err, ErrNotStopped)
	var traceErr *TraceError
	require.True(t, errors.As(err, &traceErr))
	assert.Equal(t, "resume", traceErr.Op)
	assert.Equal(t, p.Pid(), traceErr.Pid)

	_, err = p.AwaitStop()
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestResume_zombieBeforeWait(t *testing.T) {
	sh := lookPath(t, "sh")
	p := launch(t, sh, "-c", "exit 0")

	_, err := p.AwaitStop()
	require.NoError(t, err)
	require.NoError(t, p.Resume())

	// running or exited but not reaped yet, the kernel answers ESRCH either way
	err = p.Resume()
	assert.ErrorIs(t, err, ErrNotStopped)

	status, err := p.AwaitStop()
	require.NoError(t, err)
	assert.True(t, Classify(status).Terminal())
}

func TestLaunch_nonexistent(t *testing.T) {
	l := &Launcher{}
	p, err := l.Launch("/nonexistent/gotrace-target", nil)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrSpawnFailed)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, "/nonexistent/gotrace-target", launchErr.Path)
}

func TestKill_stoppedTracee(t *testing.T) {
	p := launch(t, lookPath(t, "true"))

	_, err := p.AwaitStop()
	require.NoError(t, err)
	require.Contains(t, Live(), p)

	require.NoError(t, p.Kill())
	assert.True(t, p.Reaped())
	assert.NotContains(t, Live(), p)

	// idempotent
	assert.NoError(t, p.Kill())
}

func TestLaunch_workdirAndEnv(t *testing.T) {
	sh := lookPath(t, "sh")
	dir := t.TempDir()

	l := &Launcher{
		Dir:      dir,
		Env:      []string{"GOTRACE_TEST_CODE=5"},
		ClearEnv: true,
		Setpgid:  true,
	}
	// builtins only, a forked subshell would stop the tracee with SIGCHLD
	script := `case "$PWD" in "$1") exit $GOTRACE_TEST_CODE ;; esac; exit 1`
	p, err := l.Launch(sh, []string{"-c", script, "sh", mustEvalSymlinks(t, dir)})
	if errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace not permitted: %v", err)
	}
	require.NoError(t, err)
	defer p.Kill()

	_, err = p.AwaitStop()
	require.NoError(t, err)
	require.NoError(t, p.Resume())
	status, err := p.AwaitStop()
	require.NoError(t, err)
	assert.Equal(t, StopEvent{Kind: EventExited, ExitCode: 5, TrapCause: -1}, Classify(status))
}

func mustEvalSymlinks(t *testing.T, dir string) string {
	t.Helper()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return real
}

func TestAttach_nonexistent(t *testing.T) {
	p, err := Attach(-1)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}

func TestReadProc_self(t *testing.T) {
	pid := os.Getpid()

	comm, err := readProcComm(pid)
	require.NoError(t, err)
	assert.NotEmpty(t, comm)

	_, err = readProcCommArgs(pid)
	assert.NoError(t, err)

	state, err := readProcState(pid)
	require.NoError(t, err)
	assert.Contains(t, []rune{statusRunning, statusSleeping}, state)
	assert.True(t, checkPid(pid))
}

// startSleeper starts an untraced child which sleeps for secs seconds.
func startSleeper(t *testing.T, secs string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(lookPath(t, "sleep"), secs)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	return cmd
}

// attach attaches to pid, skipping the test when the environment doesn't
// permit ptrace.
func attach(t *testing.T, pid int) *Process {
	t.Helper()
	p, err := Attach(pid)
	if errors.Is(err, unix.EPERM) {
		t.Skipf("ptrace not permitted: %v", err)
	}
	require.NoError(t, err)
	return p
}

func TestAttach_stopThenDetach(t *testing.T) {
	cmd := startSleeper(t, "1")
	pid := cmd.Process.Pid

	p := attach(t, pid)
	assert.Equal(t, ATTACH, p.Kind)
	assert.Equal(t, "sleep", p.Command)
	assert.Equal(t, p, Lookup(pid))

	status, err := p.AwaitStop()
	require.NoError(t, err)
	ev := Classify(status)
	require.Equal(t, EventStopped, ev.Kind)
	assert.Equal(t, unix.SIGSTOP, ev.Signal)
	assert.True(t, InTraceStop(pid))

	require.NoError(t, p.Detach(0))
	assert.True(t, p.Reaped())
	assert.Nil(t, Lookup(pid))
	assert.ErrorIs(t, p.Resume(), ErrNotStopped)

	// untraced again, it finishes its sleep and exits normally
	require.NoError(t, cmd.Wait())
	assert.True(t, cmd.ProcessState.Success())
}

func TestDetach_notStopped(t *testing.T) {
	cmd := startSleeper(t, "5")
	p := attach(t, cmd.Process.Pid)

	_, err := p.AwaitStop()
	require.NoError(t, err)
	require.NoError(t, p.Resume())

	err = p.Detach(0)
	assert.ErrorIs(t, err, ErrNotStopped)
	assert.False(t, p.Reaped())

	// still ours, the kill reaps it
	require.NoError(t, p.Kill())
	assert.True(t, p.Reaped())
}

func TestKillLaunched(t *testing.T) {
	launched := launch(t, lookPath(t, "true"))
	_, err := launched.AwaitStop()
	require.NoError(t, err)

	cmd := startSleeper(t, "5")
	attached := attach(t, cmd.Process.Pid)
	_, err = attached.AwaitStop()
	require.NoError(t, err)

	killed := KillLaunched()
	assert.Contains(t, killed, launched.Pid())
	assert.NotContains(t, killed, attached.Pid())

	status, err := launched.AwaitStop()
	require.NoError(t, err)
	ev := Classify(status)
	assert.Equal(t, EventKilled, ev.Kind)
	assert.Equal(t, unix.SIGKILL, ev.Signal)
	assert.True(t, launched.Reaped())

	// reaped handles are not signalled again
	assert.NotContains(t, KillLaunched(), launched.Pid())

	require.NoError(t, attached.Detach(0))
	assert.NoError(t, unix.Kill(attached.Pid(), 0))
}

func TestKill_runningTracee(t *testing.T) {
	// busy loop made of builtins, it never stops on its own
	p := launch(t, lookPath(t, "sh"), "-c", "while :; do :; done")

	_, err := p.AwaitStop()
	require.NoError(t, err)
	require.NoError(t, p.Resume())

	require.NoError(t, p.Kill())
	assert.True(t, p.Reaped())
	assert.NotContains(t, Live(), p)
	assert.Equal(t, unix.ESRCH, unix.Kill(p.Pid(), 0))

	_, err = p.AwaitStop()
	assert.ErrorIs(t, err, ErrNoSuchProcess)
}
