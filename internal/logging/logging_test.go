package logging

import (
	"bytes"
	"regexp"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	level := log.GetLevel()
	formatter := log.StandardLogger().Formatter
	out := log.StandardLogger().Out
	t.Cleanup(func() {
		log.SetLevel(level)
		log.SetFormatter(formatter)
		log.SetOutput(out)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		exp log.Level
	}{
		{"CRITICAL", log.FatalLevel},
		{"error", log.ErrorLevel},
		{"Warning", log.WarnLevel},
		{"WARN", log.WarnLevel},
		{"", log.InfoLevel},
		{"DEBUG", log.DebugLevel},
	}
	for _, tt := range tests {
		lvl, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.exp, lvl, tt.in)
	}

	_, err := ParseLevel("LOUD")
	assert.Error(t, err)
}

func TestSetupFormat(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	require.NoError(t, Setup("warning", &buf))

	log.Info("hidden")
	log.WithField("album", "Trip 2020").Warn("Skipping album")

	line := buf.String()
	assert.NotContains(t, line, "hidden")
	assert.Regexp(t, regexp.MustCompile(`^time="?\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}`), line)
	assert.Contains(t, line, `level=warning msg="Skipping album" album="Trip 2020"`)
	assert.NotContains(t, line, "\x1b[")
}

func TestMaskKey(t *testing.T) {
	restoreLogger(t)

	log.SetLevel(log.InfoLevel)
	assert.Equal(t, "abcde*****", MaskKey("abcdefghij"))
	assert.Equal(t, "abc", MaskKey("abc"))

	log.SetLevel(log.DebugLevel)
	assert.Equal(t, "abcdefghij", MaskKey("abcdefghij"))
}
