package target

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/unix"
)

// EventKind what happened to the tracee
type EventKind int

const (
	EventContinued EventKind = iota
	EventStopped
	EventExited
	EventKilled
)

func (k EventKind) String() string {
	switch k {
	case EventStopped:
		return "stopped"
	case EventExited:
		return "exited"
	case EventKilled:
		return "killed"
	default:
		return "continued"
	}
}

// StopEvent is the classification of one wait status.
type StopEvent struct {
	Kind       EventKind
	Signal     unix.Signal // stop signal or fatal signal
	ExitCode   int         // exit code, only for EventExited
	CoreDumped bool        // only for EventKilled
	TrapCause  int         // PTRACE_EVENT_* for SIGTRAP stops, -1 otherwise
}

// Classify maps a raw wait status to exactly one StopEvent. It has no state
// and never fails; anything that is neither an exit, a fatal signal nor a
// stop is reported as EventContinued.
func Classify(status unix.WaitStatus) StopEvent {
	switch {
	case status.Exited():
		return StopEvent{Kind: EventExited, ExitCode: status.ExitStatus(), TrapCause: -1}
	case status.Signaled():
		return StopEvent{Kind: EventKilled, Signal: status.Signal(), CoreDumped: status.CoreDump(), TrapCause: -1}
	case status.Stopped():
		return StopEvent{Kind: EventStopped, Signal: status.StopSignal(), TrapCause: status.TrapCause()}
	default:
		return StopEvent{Kind: EventContinued, TrapCause: -1}
	}
}

// Terminal reports whether the tracee is gone after this event.
func (e StopEvent) Terminal() bool {
	return e.Kind == EventExited || e.Kind == EventKilled
}

func (e StopEvent) String() string {
	switch e.Kind {
	case EventExited:
		return "exited: " + strconv.Itoa(e.ExitCode)
	case EventKilled:
		if e.CoreDumped {
			return "killed: " + e.Signal.String() + " (core dumped)"
		}
		return "killed: " + e.Signal.String()
	case EventStopped:
		if e.TrapCause > 0 {
			return fmt.Sprintf("stopped: %s (event %d)", e.Signal, e.TrapCause)
		}
		return "stopped: " + e.Signal.String()
	default:
		return "continued"
	}
}
