package target

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Process statuses, the third field of /proc/pid/stat
const (
	statusSleeping  = 'S'
	statusRunning   = 'R'
	statusTraceStop = 't'
	statusZombie    = 'Z'
	statusDead      = 'X'

	// Kernel 2.6 has TraceStop as T, newer kernels use T for job control stop
	statusTraceStopT = 'T'
)

// readProcComm read /proc/pid/comm or /proc/pid/stat to load the command of process.
func readProcComm(pid int) (string, error) {
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err == nil {
		// removes newline character
		comm = bytes.TrimSuffix(comm, []byte("\n"))
	}
	if len(comm) > 0 {
		return string(comm), nil
	}

	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return "", fmt.Errorf("could not read proc stat: %v", err)
	}
	start := bytes.IndexByte(stat, '(')
	end := bytes.LastIndexByte(stat, ')')
	if start < 0 || end < start {
		return "", fmt.Errorf("malformed /proc/%d/stat", pid)
	}
	return string(stat[start+1 : end]), nil
}

// readProcCommArgs read /proc/pid/cmdline to load the command arguments of process
func readProcCommArgs(pid int) ([]string, error) {
	dat, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return nil, err
	}
	dat = bytes.TrimSuffix(dat, []byte{0})
	if len(dat) == 0 {
		return nil, nil
	}
	args := strings.Split(string(dat), string([]byte{0}))[1:]
	return args, nil
}

// readProcState returns the state letter of /proc/pid/stat.
//
// The second field is the task name in parenthesis, which may itself contain
// spaces and parenthesis, so the state is looked up after the last ')'.
func readProcState(pid int) (rune, error) {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}
	end := bytes.LastIndexByte(stat, ')')
	if end < 0 || end+2 >= len(stat) {
		return 0, fmt.Errorf("malformed /proc/%d/stat", pid)
	}
	return rune(stat[end+2]), nil
}

// InTraceStop reports whether /proc says pid is currently stopped.
func InTraceStop(pid int) bool {
	state, err := readProcState(pid)
	if err != nil {
		return false
	}
	return state == statusTraceStop || state == statusTraceStopT
}
