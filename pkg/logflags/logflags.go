package logflags

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var supervisor = false
var ptrace = false

var logOut io.WriteCloser

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New()
	if logOut != nil {
		logger.Out = logOut
	} else {
		logger.Out = os.Stderr
	}
	logger.Level = logrus.DebugLevel
	if !flag {
		logger.Level = logrus.ErrorLevel
	}
	return logger.WithFields(fields)
}

// Supervisor returns true if the supervisor package should log.
func Supervisor() bool {
	return supervisor
}

// SupervisorLogger returns a logger for the supervision state machine.
func SupervisorLogger() *logrus.Entry {
	return makeLogger(supervisor, logrus.Fields{"layer": "supervisor"})
}

// Ptrace returns true if every ptrace request and wait status should be logged.
func Ptrace() bool {
	return ptrace
}

// PtraceLogger returns a logger for the target package.
func PtraceLogger() *logrus.Entry {
	return makeLogger(ptrace, logrus.Fields{"layer": "ptrace"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets log flags based on the contents of logstr.
// If logDest is not empty logs are appended to that file.
func Setup(logFlag bool, logstr string, logDest string) error {
	if !logFlag {
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logDest != "" {
		f, err := os.OpenFile(logDest, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %v", err)
		}
		logOut = f
	}
	if logstr == "" {
		logstr = "supervisor"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch strings.TrimSpace(logcmd) {
		case "supervisor":
			supervisor = true
		case "ptrace":
			ptrace = true
		default:
			return fmt.Errorf("unknown log layer %q", logcmd)
		}
	}
	return nil
}

// Close closes the log file, if any.
func Close() {
	if logOut != nil {
		logOut.Close()
		logOut = nil
	}
	supervisor, ptrace = false, false
}
