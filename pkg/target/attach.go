package target

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/hitzhangjie/gotrace/pkg/logflags"
)

// Attach trace一个运行中的进程（准确地说是它的主线程）
//
// The tracee receives SIGSTOP and enters a trace stop, which the caller
// observes with AwaitStop like the initial stop of a launched process.
func Attach(pid int) (*Process, error) {
	if !checkPid(pid) {
		return nil, &TraceError{Op: "attach", Pid: pid, Kind: ErrNoSuchProcess}
	}

	var (
		p   = newProcess("", nil, ATTACH)
		err error
	)
	if p.Process, err = os.FindProcess(pid); err != nil {
		return nil, &TraceError{Op: "attach", Pid: pid, Err: err}
	}

	p.ExecPtrace(func() {
		err = unix.PtraceAttach(pid)
	})
	if err != nil {
		p.Release()
		if err == unix.ESRCH {
			return nil, &TraceError{Op: "attach", Pid: pid, Kind: ErrNoSuchProcess, Err: err}
		}
		return nil, &TraceError{Op: "attach", Pid: pid, Err: err}
	}

	// command and arguments are informational only, a failure here doesn't
	// affect tracing
	log := logflags.PtraceLogger()
	if p.Command, err = readProcComm(pid); err != nil {
		log.Warnf("read comm of process %d: %v", pid, err)
	}
	if p.Args, err = readProcCommArgs(pid); err != nil {
		log.Warnf("read cmdline of process %d: %v", pid, err)
	}
	log.Debugf("attached to process %d (%s)", pid, p.Command)

	register(p)
	return p, nil
}

// checkPid check whether pid refers to a live, non-zombie process.
//
// On Unix systems, os.FindProcess always succeeds and returns a Process for
// the given pid, regardless of whether the process exists.
func checkPid(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); err != nil && err != unix.EPERM {
		return false
	}
	state, err := readProcState(pid)
	if err != nil {
		return false
	}
	return state != statusZombie && state != statusDead
}
