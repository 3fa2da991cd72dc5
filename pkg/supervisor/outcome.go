package supervisor

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/hitzhangjie/gotrace/pkg/target"
)

// OutcomeKind is the terminal state of a supervision.
type OutcomeKind int

const (
	Completed OutcomeKind = iota
	TerminatedBySignal
	LaunchFailed
	TraceFailed
	UnexpectedStop
)

func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "completed"
	case TerminatedBySignal:
		return "terminated by signal"
	case LaunchFailed:
		return "launch failed"
	case TraceFailed:
		return "trace failed"
	case UnexpectedStop:
		return "unexpected stop"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the result of one supervision. It is created once, when the
// state machine reaches a terminal state.
type Outcome struct {
	ID     uint64 // supervision sequence number
	Target string // program path, or "pid N" for attached processes
	Pid    int    // 0 if nothing was launched

	Kind       OutcomeKind
	ExitCode   int         // Completed
	Signal     unix.Signal // TerminatedBySignal, UnexpectedStop
	CoreDumped bool        // TerminatedBySignal
	Err        error       // LaunchFailed, TraceFailed

	Events []target.StopEvent // every event observed, in order
}

// ExitStatus maps the outcome to a shell style exit status.
func (o Outcome) ExitStatus() int {
	switch o.Kind {
	case Completed:
		return o.ExitCode
	case TerminatedBySignal:
		return 128 + int(o.Signal)
	default:
		return 1
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case Completed:
		return fmt.Sprintf("%s (pid %d): completed, exit code %d", o.Target, o.Pid, o.ExitCode)
	case TerminatedBySignal:
		if o.CoreDumped {
			return fmt.Sprintf("%s (pid %d): terminated by %s (core dumped)", o.Target, o.Pid, unix.SignalName(o.Signal))
		}
		return fmt.Sprintf("%s (pid %d): terminated by %s", o.Target, o.Pid, unix.SignalName(o.Signal))
	case UnexpectedStop:
		return fmt.Sprintf("%s (pid %d): unexpected stop by %s", o.Target, o.Pid, unix.SignalName(o.Signal))
	default:
		return fmt.Sprintf("%s: %v: %v", o.Target, o.Kind, o.Err)
	}
}
