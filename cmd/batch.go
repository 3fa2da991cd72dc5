/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/hitzhangjie/gotrace/pkg/supervisor"
	"github.com/hitzhangjie/gotrace/pkg/target"
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "并发跟踪配置文件中的所有目标",
	Long: `Supervise every entry of "targets" in the config file concurrently and print
a summary. gotrace exits with 0 only if every target completed with exit code 0.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs := Cfg.Jobs()
		if len(jobs) == 0 {
			return errors.New("no targets configured")
		}

		outcomes := Cfg.Supervisor(target.EXEC).RunAll(jobs)
		summarize(cmd.OutOrStdout(), jobs, outcomes)

		status := 0
		for _, o := range outcomes {
			if o.ExitStatus() != 0 {
				status = 1
			}
		}
		setExitStatus(status)
		return nil
	},
}

func summarize(w io.Writer, jobs []supervisor.Job, outcomes []supervisor.Outcome) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tPID\tOUTCOME\tDETAIL\n")
	for i, o := range outcomes {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%v\t%s\n", o.ID, jobs[i].Name, o.Pid, o.Kind, detail(o))
	}
	tw.Flush()
}

func detail(o supervisor.Outcome) string {
	switch o.Kind {
	case supervisor.Completed:
		return fmt.Sprintf("exit code %d", o.ExitCode)
	case supervisor.TerminatedBySignal, supervisor.UnexpectedStop:
		return unix.SignalName(o.Signal)
	default:
		return fmt.Sprint(o.Err)
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
