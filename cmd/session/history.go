package session

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gotrace/pkg/target"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Short:   "列出本会话的跟踪结果",
	Aliases: []string{"h"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, o := range CurrentSession.History() {
			fmt.Fprintf(tw, "[%d]\t%s\t%d\t%v\t%d events\n", o.ID, o.Target, o.Pid, o.Kind, len(o.Events))
		}
		tw.Flush()
	},
}

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "列出仍被跟踪的进程",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	Run: func(cmd *cobra.Command, args []string) {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, p := range target.Live() {
			state := "running"
			if target.InTraceStop(p.Pid()) {
				state = "stopped"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s %v\n", p.Pid(), p.Kind, state, p.Command, p.Args)
		}
		tw.Flush()
	},
}

func init() {
	shellRootCmd.AddCommand(historyCmd)
	shellRootCmd.AddCommand(psCmd)
}
