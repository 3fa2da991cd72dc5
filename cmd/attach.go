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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/gotrace/pkg/target"
)

// attachCmd represents the attach command
var attachCmd = &cobra.Command{
	Use:   "attach <pid>",
	Short: "跟踪运行中进程",
	Long: `Attach to the running process <pid>, resume it after the attach stop and
wait for it to terminate.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := strconv.Atoi(args[0])
		if err != nil || pid <= 0 {
			return fmt.Errorf("%s invalid pid", args[0])
		}

		sup := Cfg.Supervisor(target.ATTACH)
		report(cmd.OutOrStdout(), sup.SuperviseAttached(pid))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
}
