/*
Copyright © 2020 hit.zhangjie@gmail.com

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
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/atomic"

	"github.com/hitzhangjie/gotrace/pkg/config"
	"github.com/hitzhangjie/gotrace/pkg/logflags"
)

var (
	cfgFile string
	verbose int

	// Cfg is the configuration of the running command
	Cfg = config.Default()

	exitStatus = atomic.NewInt32(0)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gotrace",
	Short: "gotrace runs programs under ptrace and reports how they ended",
	Long: `gotrace launches a program (or attaches to a running process) under ptrace,
waits for its initial trace stop, resumes it once and waits for it to terminate.

The outcome is one of: completed, terminated by signal, launch failed,
trace failed, unexpected stop.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case verbose == 1:
			viper.Set("log", true)
			viper.Set("log-output", "supervisor")
		case verbose > 1:
			viper.Set("log", true)
			viper.Set("log-output", "supervisor,ptrace")
		}

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		Cfg = cfg
		return logflags.Setup(cfg.Log, cfg.LogOutput, cfg.LogDest)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	logflags.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(int(exitStatus.Load()))
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gotrace.yaml)")
	flags.CountVarP(&verbose, "verbose", "v", "-v logs supervisor events, -vv adds ptrace requests")
	flags.Bool("log", false, "enable logging")
	flags.String("log-output", "", "comma separated list of layers to log: supervisor, ptrace")
	flags.String("log-dest", "", "append logs to this file instead of stderr")
	flags.String("workdir", "", "working directory of the target")
	flags.StringSlice("env", nil, "extra environment variables for the target, KEY=VALUE")
	flags.Bool("clear-env", false, "don't pass gotrace's environment to the target")
	flags.Bool("setpgid", true, "run the target in its own process group, with stdin from the null device")
	flags.Bool("keep-stopped", false, "leave the target alive after an unexpected stop")

	for _, name := range []string{"log", "log-output", "log-dest", "workdir", "env", "clear-env", "setpgid", "keep-stopped"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in home directory with name ".gotrace" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".gotrace")
	}

	viper.SetEnvPrefix("gotrace")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil && verbose > 0 {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setExitStatus(code int) {
	exitStatus.Store(int32(code))
}
