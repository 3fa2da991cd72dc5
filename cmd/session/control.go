package session

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/hitzhangjie/gotrace/pkg/supervisor"
	"github.com/hitzhangjie/gotrace/pkg/target"
)

var killCmd = &cobra.Command{
	Use:   "kill <pid>",
	Short: "杀死仍被跟踪的进程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSupervise,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := lookupTracee(args[0])
		if err != nil {
			return err
		}
		if err := p.Kill(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "process %d killed\n", p.Pid())
		return nil
	},
}

var detachCmd = &cobra.Command{
	Use:   "detach <pid>",
	Short: "结束跟踪，进程继续运行",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSupervise,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := lookupTracee(args[0])
		if err != nil {
			return err
		}
		sig := pendingSignal(CurrentSession.History(), p.Pid())
		if err := p.Detach(sig); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "process %d detached\n", p.Pid())
		return nil
	},
}

// lookupTracee finds the live tracee with pid s, e.g. one kept stopped after
// an unexpected stop.
func lookupTracee(s string) (*target.Process, error) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return nil, fmt.Errorf("%s invalid pid", s)
	}
	p := target.Lookup(pid)
	if p == nil {
		return nil, fmt.Errorf("process %d is not traced", pid)
	}
	return p, nil
}

// pendingSignal returns the signal of the latest unexpected stop of pid, which
// the process still has to receive. 0 if there is none.
func pendingSignal(history []supervisor.Outcome, pid int) unix.Signal {
	for i := len(history) - 1; i >= 0; i-- {
		if o := history[i]; o.Pid == pid {
			if o.Kind == supervisor.UnexpectedStop {
				return o.Signal
			}
			return 0
		}
	}
	return 0
}

func init() {
	shellRootCmd.AddCommand(killCmd)
	shellRootCmd.AddCommand(detachCmd)
}
