package target

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/hitzhangjie/gotrace/pkg/logflags"
)

// Launcher 创建被跟踪进程
//
// The zero value starts the target in the current directory with the
// supervisor's environment and /dev/null as stdio.
type Launcher struct {
	Dir      string   // working directory of the tracee
	Env      []string // extra KEY=VALUE pairs
	ClearEnv bool     // don't inherit the supervisor's environment
	Setpgid  bool     // put the tracee into its own process group

	// stdio of the tracee, nil means the null device
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Kind recorded on the handles created by this launcher, EXEC by default
	Kind Kind
}

// Launch starts path with args under trace control.
//
// args doesn't include argv[0], which is always path. The child requests
// PTRACE_TRACEME before execve, so the returned process is either already
// in its initial trace stop or about to enter it; nothing else can be
// observed first. Exactly one process is created when err is nil.
func (l *Launcher) Launch(path string, args []string) (*Process, error) {
	var (
		p   = newProcess(path, args, l.Kind)
		err error
	)
	p.ExecPtrace(func() {
		p.Process, err = l.launchCommand(path, args...)
	})
	if err != nil {
		p.Release()
		return nil, &LaunchError{Path: path, Err: err}
	}

	logflags.PtraceLogger().Debugf("launched %s %v, pid %d", path, args, p.Pid())
	register(p)
	return p, nil
}

// launchCommand execute `execName` with `args`
//
// The fork/exec must happen on the tracer thread, see ExecPtrace. A failing
// execve is reported by the Go runtime through the exec status pipe, so
// Start returns the error and the child has already been reaped.
func (l *Launcher) launchCommand(execName string, args ...string) (*os.Process, error) {
	progCmd := exec.Command(execName, args...)
	if l.Stdin != nil {
		progCmd.Stdin = l.Stdin
	}
	if l.Stdout != nil {
		progCmd.Stdout = l.Stdout
	}
	if l.Stderr != nil {
		progCmd.Stderr = l.Stderr
	}
	progCmd.Dir = l.Dir

	progCmd.SysProcAttr = &syscall.SysProcAttr{
		Ptrace:     true, // implies PTRACE_TRACEME
		Setpgid:    l.Setpgid,
		Foreground: false,
	}

	env := []string{}
	if !l.ClearEnv {
		env = append(env, os.Environ()...)
	}
	progCmd.Env = append(env, l.Env...)
	if l.Kind == BUILD {
		// SIGURG preemption would stop the traced go program again
		progCmd.Env = append(progCmd.Env, "GODEBUG=asyncpreemptoff=1")
	}

	if err := progCmd.Start(); err != nil {
		return nil, err
	}
	return progCmd.Process, nil
}
