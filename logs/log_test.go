package logs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	SetOutput(out, errOut)
	prevLevel, prevTag := GetLevel(), NodeTag
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
		SetLevel(prevLevel)
		NodeTag = prevTag
	})
	return out, errOut
}

func TestParseLevel(t *testing.T) {
	cases := map[string]int{
		"trace":   LevelTrace,
		"DEBUG":   LevelDebug,
		"verbose": LevelVerbose,
		"":        LevelInfo,
		" info ":  LevelInfo,
		"warning": LevelWarning,
		"warn":    LevelWarning,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	out, errOut := captureOutput(t)
	SetLevel(LevelWarning)

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warn("shown %d", 3)
	Error("failed %d", 4)

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[WARN]")
	assert.Contains(t, out.String(), "shown 3")
	assert.Contains(t, errOut.String(), "[ERROR]")
	assert.Contains(t, errOut.String(), "failed 4")
}

func TestNodeTagAndCaller(t *testing.T) {
	out, _ := captureOutput(t)
	SetLevel(LevelTrace)
	NodeTag = "[vaultd]"

	Default().Info("vault %s", "ok")
	Trace("t")

	s := out.String()
	assert.Contains(t, s, "[vaultd] vault ok")
	assert.Contains(t, s, "[TRACE]")
	assert.Contains(t, s, "log_test.go")
}
