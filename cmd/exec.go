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
	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gotrace/pkg/target"
)

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec <prog> [args...]",
	Short: "跟踪执行可执行程序",
	Long: `Start <prog> with [args...] under ptrace, resume it after the initial trace stop
and wait for it to terminate. The exit status of gotrace mirrors the outcome:
the target's exit code, 128+signal when it was killed, 1 on any failure.

With --setpgid (the default) the target runs in its own process group, so
terminal signals such as Ctrl-C reach gotrace only. Its stdin is then the null
device, since reading from the terminal would stop it with SIGTTIN. Use
--setpgid=false for targets which read from the terminal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sup := Cfg.Supervisor(target.EXEC)
		report(cmd.OutOrStdout(), sup.Supervise(args[0], args[1:]))
		return nil
	},
}

func init() {
	// everything after <prog> belongs to the target
	execCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(execCmd)
}
