package config

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitzhangjie/gotrace/pkg/target"
)

func TestLoad_defaults(t *testing.T) {
	c, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.True(t, c.Setpgid)
	assert.Empty(t, c.Jobs())
}

func TestLoad_yaml(t *testing.T) {
	const cfg = `
workdir: /tmp
env:
  - A=1
  - B=2
setpgid: false
keep-stopped: true
log: true
log-output: supervisor,ptrace
targets:
  - name: ok
    path: /bin/true
  - path: /bin/sh
    args: ["-c", "exit 3"]
`
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(cfg)))

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp", c.WorkDir)
	assert.Equal(t, []string{"A=1", "B=2"}, c.Env)
	assert.False(t, c.Setpgid)
	assert.True(t, c.KeepStopped)
	assert.True(t, c.Log)
	assert.Equal(t, "supervisor,ptrace", c.LogOutput)

	jobs := c.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "ok", jobs[0].Name)
	assert.Equal(t, "/bin/true", jobs[0].Path)
	assert.Equal(t, "/bin/sh", jobs[1].Name)
	assert.Equal(t, []string{"-c", "exit 3"}, jobs[1].Args)

	s := c.Supervisor(target.EXEC)
	assert.True(t, s.KeepStopped)
}

func TestLoad_env(t *testing.T) {
	v := viper.New()
	v.SetEnvPrefix("gotrace_test")
	v.AutomaticEnv()
	v.SetDefault("env", []string{})
	v.SetDefault("workdir", "")

	t.Setenv("GOTRACE_TEST_ENV", "A=1,B=2")
	t.Setenv("GOTRACE_TEST_WORKDIR", "/var/tmp")

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"A=1", "B=2"}, c.Env)
	assert.Equal(t, "/var/tmp", c.WorkDir)
}

func TestLoad_targetWithoutPath(t *testing.T) {
	v := viper.New()
	v.Set("targets", []map[string]interface{}{{"name": "broken"}})

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLauncher(t *testing.T) {
	c := Default()
	c.WorkDir = "/srv"
	c.ClearEnv = true

	l := c.Launcher(target.BUILD)
	assert.Equal(t, "/srv", l.Dir)
	assert.True(t, l.ClearEnv)
	assert.True(t, l.Setpgid)
	assert.Equal(t, target.BUILD, l.Kind)
	assert.Equal(t, os.Stdout, l.Stdout)
	// background process group, the terminal isn't readable
	assert.Nil(t, l.Stdin)

	c.Setpgid = false
	l = c.Launcher(target.EXEC)
	assert.Equal(t, os.Stdin, l.Stdin)
}
