package target

import (
	"sort"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	liveMu sync.Mutex
	live   = map[int]*Process{} // k=pid, v=tracee not reaped yet
)

func register(p *Process) {
	liveMu.Lock()
	defer liveMu.Unlock()
	live[p.Pid()] = p
}

func unregister(p *Process) {
	liveMu.Lock()
	defer liveMu.Unlock()
	if live[p.Pid()] == p {
		delete(live, p.Pid())
	}
}

// Live returns the tracees which have not been reaped, ordered by pid.
func Live() []*Process {
	liveMu.Lock()
	defer liveMu.Unlock()

	procs := make([]*Process, 0, len(live))
	for _, p := range live {
		procs = append(procs, p)
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].Pid() < procs[j].Pid() })
	return procs
}

// Lookup returns the live tracee pid, or nil.
func Lookup(pid int) *Process {
	liveMu.Lock()
	defer liveMu.Unlock()
	return live[pid]
}

// KillLaunched sends SIGKILL to every live tracee started by this process,
// ordered by pid. Attached processes are left alone, the kernel detaches them
// when the tracer exits.
//
// Reaping is left to whoever is waiting on the handle. The registry lock is
// held while signalling, so a handle can't be unregistered and its pid reused
// in between.
func KillLaunched() []int {
	liveMu.Lock()
	defer liveMu.Unlock()

	var killed []int
	for pid, p := range live {
		if p.Kind == ATTACH || p.Reaped() {
			continue
		}
		if err := unix.Kill(pid, unix.SIGKILL); err == nil {
			killed = append(killed, pid)
		}
	}
	sort.Ints(killed)
	return killed
}
