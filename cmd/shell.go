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

	"github.com/hitzhangjie/gotrace/cmd/session"
	"github.com/hitzhangjie/gotrace/pkg/target"
)

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "交互式跟踪会话",
	Long:  `Start an interactive session to run and attach to programs one at a time.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		session.Supervisor = Cfg.Supervisor(target.EXEC)
		session.CurrentSession = session.NewSession().AtExit(Cleanup)
		session.CurrentSession.Start()
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
