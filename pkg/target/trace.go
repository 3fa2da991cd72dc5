package target

import (
	"golang.org/x/sys/unix"

	"github.com/hitzhangjie/gotrace/pkg/logflags"
)

// Resume continues the tracee from its current trace stop without
// delivering a signal.
//
// A tracee that is not in a stop, or that is already gone, yields a
// TraceError wrapping ErrNotStopped.
func (p *Process) Resume() error {
	pid := p.Pid()
	if p.reaped.Load() {
		return &TraceError{Op: "resume", Pid: pid, Kind: ErrNotStopped}
	}

	var err error
	p.ExecPtrace(func() {
		err = unix.PtraceCont(pid, 0)
	})
	if err == unix.ESRCH {
		// the kernel reports ESRCH both for running and for dead tracees
		return &TraceError{Op: "resume", Pid: pid, Kind: ErrNotStopped, Err: err}
	}
	if err != nil {
		return &TraceError{Op: "resume", Pid: pid, Err: err}
	}
	if logflags.Ptrace() {
		logflags.PtraceLogger().Debugf("process %d resumed", pid)
	}
	return nil
}

// AwaitStop blocks until the tracee changes state: it stops, exits or is
// killed. Once an exit or kill has been returned the handle is reaped and
// further calls fail with ErrNoSuchProcess.
func (p *Process) AwaitStop() (unix.WaitStatus, error) {
	pid := p.Pid()
	if p.reaped.Load() {
		return 0, &TraceError{Op: "wait", Pid: pid, Kind: ErrNoSuchProcess}
	}

	wpid, status, err := p.wait(pid)
	if err == unix.ECHILD || err == unix.ESRCH {
		// not our tracee anymore, don't touch this pid again
		p.markReaped()
		return 0, &TraceError{Op: "wait", Pid: pid, Kind: ErrNoSuchProcess, Err: err}
	}
	if err != nil {
		return 0, &TraceError{Op: "wait", Pid: pid, Err: err}
	}

	ev := Classify(status)
	if logflags.Ptrace() {
		logflags.PtraceLogger().Debugf("process %d status: %v", wpid, ev)
	}
	if ev.Terminal() {
		p.markReaped()
	}
	return status, nil
}

// Kill sends SIGKILL to the tracee and reaps it.
func (p *Process) Kill() error {
	pid := p.Pid()
	if p.reaped.Load() {
		return nil
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return &TraceError{Op: "kill", Pid: pid, Err: err}
	}
	for {
		status, err := p.AwaitStop()
		if err != nil {
			return err
		}
		if Classify(status).Terminal() {
			return nil
		}
	}
}

// Detach stops tracing the process and leaves it running. The tracee must be
// in a trace stop; sig, if not 0, is delivered to it as it leaves the stop so
// a signal that caused a signal-delivery-stop isn't lost.
func (p *Process) Detach(sig unix.Signal) error {
	pid := p.Pid()
	if p.reaped.Load() {
		return &TraceError{Op: "detach", Pid: pid, Kind: ErrNoSuchProcess}
	}

	var err error
	p.ExecPtrace(func() {
		err = ptraceDetach(pid, sig)
	})
	if err == unix.ESRCH {
		return &TraceError{Op: "detach", Pid: pid, Kind: ErrNotStopped, Err: err}
	}
	if err != nil {
		return &TraceError{Op: "detach", Pid: pid, Err: err}
	}
	if logflags.Ptrace() {
		logflags.PtraceLogger().Debugf("process %d detached, signal %d", pid, sig)
	}
	p.markReaped()
	return nil
}

// ptraceDetach calls ptrace(PTRACE_DETACH) with a signal to deliver.
func ptraceDetach(pid int, sig unix.Signal) error {
	_, _, errno := unix.Syscall6(unix.SYS_PTRACE, unix.PTRACE_DETACH, uintptr(pid), 1, uintptr(sig), 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func (p *Process) markReaped() {
	if p.reaped.CAS(false, true) {
		p.Release()
		unregister(p)
	}
}

// wait waits for a state change of pid, EINTR is retried.
func (p *Process) wait(pid int) (int, unix.WaitStatus, error) {
	var s unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &s, unix.WALL, nil)
		if err == unix.EINTR {
			continue
		}
		return wpid, s, err
	}
}
