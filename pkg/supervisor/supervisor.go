// Package supervisor drives a traced process through its lifecycle: wait for
// the initial trace stop, resume it once, wait for it to terminate.
package supervisor

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"

	"github.com/hitzhangjie/gotrace/pkg/logflags"
	"github.com/hitzhangjie/gotrace/pkg/target"
)

var (
	seqNo = atomic.NewUint64(0)

	// ErrExitedBeforeStop the target terminated before its initial trace stop,
	// so it never ran under trace
	ErrExitedBeforeStop = errors.New("target terminated before the initial trace stop")
)

// Tracee is the trace control surface of one traced process.
type Tracee interface {
	Pid() int
	Resume() error
	AwaitStop() (unix.WaitStatus, error)
	Kill() error
	Detach(sig unix.Signal) error
}

// LaunchFunc starts path with args under trace control.
type LaunchFunc func(path string, args []string) (Tracee, error)

// AttachFunc starts tracing the running process pid.
type AttachFunc func(pid int) (Tracee, error)

// Supervisor runs supervisions. It holds no per-supervision state, so one
// Supervisor may run any number of supervisions concurrently.
type Supervisor struct {
	Launch LaunchFunc
	Attach AttachFunc

	// KeepStopped leaves the tracee stopped under trace after an
	// UnexpectedStop or a TraceFailed outcome instead of cleaning it up. The
	// handle stays in target.Live until it is killed or detached.
	KeepStopped bool
}

// New returns a Supervisor which launches targets with l.
func New(l *target.Launcher) *Supervisor {
	return &Supervisor{
		Launch: func(path string, args []string) (Tracee, error) {
			p, err := l.Launch(path, args)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Attach: func(pid int) (Tracee, error) {
			p, err := target.Attach(pid)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

type state int

const (
	stateAwaitingInitialStop state = iota
	stateResuming
	stateAwaitingExit
)

// Supervise launches path with args, lets it pass its initial trace stop
// and waits for it to terminate. Every failure is reported as a terminal
// outcome, nothing is retried.
func (s *Supervisor) Supervise(path string, args []string) Outcome {
	o := Outcome{ID: seqNo.Add(1), Target: path}
	log := logflags.SupervisorLogger().WithField("id", o.ID)

	if logflags.Supervisor() {
		log.Debugf("launching %s %v", path, args)
	}
	t, err := s.Launch(path, args)
	if err != nil {
		o.Kind, o.Err = LaunchFailed, err
		if logflags.Supervisor() {
			log.Debugf("launch failed: %v", err)
		}
		return o
	}
	return s.drive(o, t, false)
}

// SuperviseAttached is Supervise for a process that is already running.
// Attaching replaces launching, the rest of the lifecycle is the same.
func (s *Supervisor) SuperviseAttached(pid int) Outcome {
	o := Outcome{ID: seqNo.Add(1), Target: fmt.Sprintf("pid %d", pid)}
	log := logflags.SupervisorLogger().WithField("id", o.ID)

	if logflags.Supervisor() {
		log.Debugf("attaching to %d", pid)
	}
	t, err := s.Attach(pid)
	if err != nil {
		o.Kind, o.Err = TraceFailed, err
		if logflags.Supervisor() {
			log.Debugf("attach failed: %v", err)
		}
		return o
	}
	return s.drive(o, t, true)
}

// drive runs the state machine on t. An attached tracee is detached rather
// than killed when the supervision fails, it isn't ours to end.
func (s *Supervisor) drive(o Outcome, t Tracee, attached bool) Outcome {
	log := logflags.SupervisorLogger().WithField("id", o.ID)
	o.Pid = t.Pid()

	st := stateAwaitingInitialStop
	for {
		switch st {
		case stateAwaitingInitialStop:
			ev, err := s.next(t, &o)
			if err != nil {
				o.Kind, o.Err = TraceFailed, err
				return s.cleanup(o, t, attached)
			}
			if ev.Kind != target.EventStopped {
				// the image was never replaced under trace, e.g. exec failed
				// after the fork in a way the launcher could not report
				o.Kind, o.Err = LaunchFailed, fmt.Errorf("%w: %v", ErrExitedBeforeStop, ev)
				return o
			}
			if logflags.Supervisor() {
				log.Debugf("process %d initial stop: %v", o.Pid, ev)
			}
			st = stateResuming

		case stateResuming:
			if err := t.Resume(); err != nil {
				o.Kind, o.Err = TraceFailed, err
				return s.cleanup(o, t, attached)
			}
			st = stateAwaitingExit

		case stateAwaitingExit:
			ev, err := s.next(t, &o)
			if err != nil {
				o.Kind, o.Err = TraceFailed, err
				return s.cleanup(o, t, attached)
			}
			if logflags.Supervisor() {
				log.Debugf("process %d: %v", o.Pid, ev)
			}
			switch ev.Kind {
			case target.EventExited:
				o.Kind, o.ExitCode = Completed, ev.ExitCode
				return o
			case target.EventKilled:
				o.Kind, o.Signal, o.CoreDumped = TerminatedBySignal, ev.Signal, ev.CoreDumped
				return o
			default:
				// resumed exactly once; a second stop is reported, not resumed
				o.Kind, o.Signal = UnexpectedStop, ev.Signal
				return s.cleanup(o, t, attached)
			}
		}
	}
}

// next waits for the next event that isn't EventContinued.
func (s *Supervisor) next(t Tracee, o *Outcome) (target.StopEvent, error) {
	for {
		status, err := t.AwaitStop()
		if err != nil {
			return target.StopEvent{}, err
		}
		ev := target.Classify(status)
		o.Events = append(o.Events, ev)
		if ev.Kind != target.EventContinued {
			return ev, nil
		}
	}
}

// cleanup ends the tracing of a tracee left behind by a failed supervision.
// Launched tracees are killed and reaped. Attached ones are detached, getting
// back the signal of an unexpected stop, and keep running as if never traced.
func (s *Supervisor) cleanup(o Outcome, t Tracee, attached bool) Outcome {
	if s.KeepStopped {
		return o
	}
	log := logflags.SupervisorLogger().WithField("id", o.ID)
	if attached {
		if err := t.Detach(o.Signal); err != nil {
			log.Warnf("detach process %d: %v", o.Pid, err)
		}
		return o
	}
	if err := t.Kill(); err != nil {
		log.Warnf("kill process %d: %v", o.Pid, err)
	}
	return o
}

// Job is one independent supervision of RunAll.
type Job struct {
	Name string
	Path string
	Args []string
}

// RunAll supervises jobs concurrently, one goroutine and one tracee per job.
// Outcomes are returned in job order.
func (s *Supervisor) RunAll(jobs []Job) []Outcome {
	var (
		wg       sync.WaitGroup
		outcomes = make([]Outcome, len(jobs))
	)
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job Job) {
			defer wg.Done()
			outcomes[i] = s.Supervise(job.Path, job.Args)
		}(i, job)
	}
	wg.Wait()
	return outcomes
}
