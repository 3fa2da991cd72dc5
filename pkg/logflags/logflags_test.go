package logflags

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_withoutLog(t *testing.T) {
	defer Close()

	require.NoError(t, Setup(false, "", ""))
	assert.False(t, Supervisor())
	assert.False(t, Ptrace())

	assert.Equal(t, errLogstrWithoutLog, Setup(false, "ptrace", ""))
}

func TestSetup_layers(t *testing.T) {
	defer Close()

	require.NoError(t, Setup(true, "", ""))
	assert.True(t, Supervisor())
	assert.False(t, Ptrace())
	Close()

	require.NoError(t, Setup(true, "supervisor,ptrace", ""))
	assert.True(t, Supervisor())
	assert.True(t, Ptrace())
	Close()

	assert.Error(t, Setup(true, "gdbwire", ""))
}

func TestMakeLogger_level(t *testing.T) {
	defer Close()

	quiet := makeLogger(false, logrus.Fields{"foo": "bar"})
	assert.Equal(t, logrus.ErrorLevel, quiet.Logger.Level)
	assert.Equal(t, "bar", quiet.Data["foo"])

	loud := makeLogger(true, logrus.Fields{"foo": "bar"})
	assert.Equal(t, logrus.DebugLevel, loud.Logger.Level)
}

func TestSetup_logDest(t *testing.T) {
	defer Close()

	dest := filepath.Join(t.TempDir(), "gotrace.log")
	require.NoError(t, Setup(true, "ptrace", dest))

	logger := PtraceLogger()
	assert.Equal(t, logOut, logger.Logger.Out)
	assert.Equal(t, "ptrace", logger.Data["layer"])
	assert.FileExists(t, dest)
}
