/*
Copyright © 2021 NAME HERE <EMAIL ADDRESS>

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
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/atomic"

	"github.com/hitzhangjie/gotrace/pkg/target"
)

const (
	buildExecName = "__gotrace_bin__"
)

// builtBinary is the binary produced by the build command, removed on exit
var builtBinary = atomic.NewString("")

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [package] [-- args...]",
	Short: "构建并跟踪执行go程序",
	Long: `Build the go package (default ".") with optimizations disabled and run the
binary under ptrace like the exec command. Arguments after -- are passed to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pkgs, progArgs := args, []string(nil)
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			pkgs, progArgs = args[:dash], args[dash:]
		}
		if len(pkgs) == 0 {
			pkgs = []string{"."}
		}

		dir, err := os.MkdirTemp("", "gotrace")
		if err != nil {
			return err
		}
		bin := filepath.Join(dir, buildExecName)
		builtBinary.Store(dir)
		defer Cleanup()

		cmdArgs := []string{"build", "-gcflags=all=-N -l", "-o", bin}
		cmdArgs = append(cmdArgs, pkgs...)
		buildCmd := exec.Command("go", cmdArgs...)

		if buf, err := buildCmd.CombinedOutput(); err != nil {
			fmt.Fprintf(os.Stderr, "build error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\terrmsg: %s\n", string(buf))
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "build ok\n")

		sup := Cfg.Supervisor(target.BUILD)
		report(cmd.OutOrStdout(), sup.Supervise(bin, progArgs))
		return nil
	},
}

// Cleanup removes the binary built by the build command, if any.
func Cleanup() {
	if dir := builtBinary.Swap(""); dir != "" {
		os.RemoveAll(dir)
	}
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
