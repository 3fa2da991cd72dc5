// Package config holds the settings read from the config file, the
// environment (GOTRACE_*) and the command line flags.
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/hitzhangjie/gotrace/pkg/supervisor"
	"github.com/hitzhangjie/gotrace/pkg/target"
)

// Target is one program supervised by the batch command.
type Target struct {
	Name string   `mapstructure:"name"`
	Path string   `mapstructure:"path"`
	Args []string `mapstructure:"args"`
}

// Config defines all configuration options.
type Config struct {
	// WorkDir is the working directory of launched targets.
	WorkDir string `mapstructure:"workdir"`
	// Env is appended to the environment of launched targets.
	Env []string `mapstructure:"env"`
	// ClearEnv starts targets with Env only.
	ClearEnv bool `mapstructure:"clear-env"`
	// Setpgid puts every target in its own process group so that terminal
	// signals reach the supervisor only.
	Setpgid bool `mapstructure:"setpgid"`
	// KeepStopped leaves a target alive after an unexpected stop.
	KeepStopped bool `mapstructure:"keep-stopped"`

	Log       bool   `mapstructure:"log"`
	LogOutput string `mapstructure:"log-output"`
	LogDest   string `mapstructure:"log-dest"`

	Targets []Target `mapstructure:"targets"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Setpgid: true,
	}
}

// Load decodes the settings known to v on top of Default. Comma separated
// strings are accepted for list values, e.g. GOTRACE_ENV=A=1,B=2.
func Load(v *viper.Viper) (*Config, error) {
	c := Default()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(c, hook); err != nil {
		return nil, fmt.Errorf("decode config: %v", err)
	}
	for i, t := range c.Targets {
		if t.Path == "" {
			return nil, fmt.Errorf("targets[%d]: path is required", i)
		}
		if t.Name == "" {
			c.Targets[i].Name = t.Path
		}
	}
	return c, nil
}

// Launcher returns a launcher that starts targets with this configuration
// and the supervisor's stdout and stderr.
//
// A target in its own process group is in the background of the terminal,
// reading from it would stop the target with SIGTTIN. Such targets read from
// the null device, stdin is only passed on with Setpgid off.
func (c *Config) Launcher(kind target.Kind) *target.Launcher {
	l := &target.Launcher{
		Dir:      c.WorkDir,
		Env:      c.Env,
		ClearEnv: c.ClearEnv,
		Setpgid:  c.Setpgid,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Kind:     kind,
	}
	if !c.Setpgid {
		l.Stdin = os.Stdin
	}
	return l
}

// Supervisor returns a supervisor configured by c.
func (c *Config) Supervisor(kind target.Kind) *supervisor.Supervisor {
	s := supervisor.New(c.Launcher(kind))
	s.KeepStopped = c.KeepStopped
	return s
}

// Jobs converts the batch targets to supervisor jobs.
func (c *Config) Jobs() []supervisor.Job {
	jobs := make([]supervisor.Job, 0, len(c.Targets))
	for _, t := range c.Targets {
		jobs = append(jobs, supervisor.Job{Name: t.Name, Path: t.Path, Args: t.Args})
	}
	return jobs
}
