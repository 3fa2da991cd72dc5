package target

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawnFailed the tracee process could not be created
	ErrSpawnFailed = errors.New("spawn failed")
	// ErrNotStopped the tracee is not in a trace stop, so it cannot be resumed
	ErrNotStopped = errors.New("process not stopped")
	// ErrNoSuchProcess the handle no longer refers to a live traced process
	ErrNoSuchProcess = errors.New("no such process")
)

// LaunchError is returned by Launch when no tracee could be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v: %v", e.Path, ErrSpawnFailed, e.Err)
}

// Unwrap exposes both ErrSpawnFailed and the underlying cause.
func (e *LaunchError) Unwrap() []error {
	return []error{ErrSpawnFailed, e.Err}
}

// TraceError is returned by the trace control operations of a Process.
type TraceError struct {
	Op   string // resume, wait, attach, detach, kill
	Pid  int
	Kind error // ErrNotStopped, ErrNoSuchProcess or nil
	Err  error // errno reported by the kernel, may be nil
}

func (e *TraceError) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s process %d: %v: %v", e.Op, e.Pid, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s process %d: %v", e.Op, e.Pid, e.Kind)
	default:
		return fmt.Sprintf("%s process %d: %v", e.Op, e.Pid, e.Err)
	}
}

func (e *TraceError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
