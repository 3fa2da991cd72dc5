package target

import (
	"os"
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// Kind 被跟踪进程的来源
type Kind int

const (
	// EXEC the tracee was started by the supervisor
	EXEC Kind = iota
	// BUILD the tracee was built from go source and started by the supervisor
	BUILD
	// ATTACH the tracee was already running and the supervisor attached to it
	ATTACH
)

func (k Kind) String() string {
	switch k {
	case EXEC:
		return "exec"
	case BUILD:
		return "build"
	case ATTACH:
		return "attach"
	default:
		return "unknown"
	}
}

// Process is the handle of a traced process. It is owned by exactly one
// supervision from launch (or attach) until the process is reaped.
type Process struct {
	Process *os.Process // 进程信息
	Command string      // 进程启动命令
	Args    []string    // 进程启动参数
	Kind    Kind        // 发起跟踪的方式

	reaped *atomic.Bool // set once wait4 reported exit or kill, or on detach

	once       *sync.Once
	stopOnce   *sync.Once
	ptraceCh   chan func() // ptrace请求统一发送到这里，由专门协程处理
	ptraceDone chan int    // ptrace请求完成
	stopCh     chan int    // 通知需要停止跟踪
}

func newProcess(cmd string, args []string, kind Kind) *Process {
	return &Process{
		Command:    cmd,
		Args:       args,
		Kind:       kind,
		reaped:     atomic.NewBool(false),
		once:       &sync.Once{},
		stopOnce:   &sync.Once{},
		ptraceCh:   make(chan func()),
		ptraceDone: make(chan int),
		stopCh:     make(chan int),
	}
}

// Pid returns the process id of the tracee.
func (p *Process) Pid() int {
	if p.Process == nil {
		return 0
	}
	return p.Process.Pid
}

// Reaped reports whether the tracee has been observed exiting or being killed.
func (p *Process) Reaped() bool {
	return p.reaped.Load()
}

// ExecPtrace runs fn on the tracer thread of this process.
//
// The kernel binds a tracee to the thread that forked or attached it, so every
// ptrace request must be issued from that same thread. See
// https://github.com/golang/go/issues/7699.
func (p *Process) ExecPtrace(fn func()) {
	p.once.Do(func() {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			for {
				select {
				case reqFn := <-p.ptraceCh:
					reqFn()
					p.ptraceDone <- 1
				case <-p.stopCh:
					return
				}
			}
		}()
	})
	p.ptraceCh <- fn
	<-p.ptraceDone
}

// Release stops the tracer thread. The handle must not issue ptrace requests
// afterwards.
func (p *Process) Release() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
}
