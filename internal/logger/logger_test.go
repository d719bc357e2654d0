package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetVerbose(false)

	SetVerbose(false)
	Debug("hidden %d", 1)
	Info("hidden")
	Warn("hidden")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("visible %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] visible 2")

	Info("info line")
	assert.Contains(t, buf.String(), "[INFO] info line")

	Warn("warn line")
	assert.Contains(t, buf.String(), "[WARN] warn line")

	Section("Retrieval")
	assert.Contains(t, buf.String(), "=== Retrieval ===")
}

func TestIsVerbose(t *testing.T) {
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
