package session

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run <prog> [args...]",
	Short:   "跟踪执行程序直到结束",
	Aliases: []string{"r"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSupervise,
	},
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		o := Supervisor.Supervise(args[0], args[1:])
		CurrentSession.record(o)
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %v\n", o.ID, o)
		return nil
	},
}

var attachCmd = &cobra.Command{
	Use:   "attach <pid>",
	Short: "跟踪运行中进程直到结束",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSupervise,
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil || pid <= 0 {
			return fmt.Errorf("%s invalid pid", args[0])
		}
		o := Supervisor.SuperviseAttached(pid)
		CurrentSession.record(o)
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %v\n", o.ID, o)
		return nil
	},
}

func init() {
	runCmd.Flags().SetInterspersed(false)
	shellRootCmd.AddCommand(runCmd)
	shellRootCmd.AddCommand(attachCmd)
}
