package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debugs int
	infos  int
	errors int
}

func (r *recordingLogger) Debug(string, ...Field) { r.debugs++ }
func (r *recordingLogger) Info(string, ...Field)  { r.infos++ }
func (r *recordingLogger) Error(string, ...Field) { r.errors++ }

func TestSetLoggerOverridesGlobal(t *testing.T) {
	recorder := new(recordingLogger)
	SetLogger(recorder)

	Log().Debug("test")
	require.Equal(t, 1, recorder.debugs)

	SetLogger(nil)
	Log().Info("noop")
	require.Equal(t, 0, recorder.infos)
}

func TestLogrusLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrus(NewLogrusWriter(&buf, "debug", "json"), "producer")

	logger.Debug("admission granted", F("domain", "market"), F("attempt", 2))

	out := buf.String()
	require.Contains(t, out, `"msg":"admission granted"`)
	require.Contains(t, out, `"component":"producer"`)
	require.Contains(t, out, `"domain":"market"`)
	require.Contains(t, out, `"attempt":2`)
}

func TestLogrusLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrus(NewLogrusWriter(&buf, "info", "text"), "")

	logger.Debug("hidden")
	require.Empty(t, buf.String())

	logger.Error("visible", F("reason", "boom"))
	require.Contains(t, buf.String(), "visible")
	require.Contains(t, buf.String(), "reason=boom")
}

func TestLogrusWriterUnknownLevelDefaultsToInfo(t *testing.T) {
	logger := NewLogrusWriter(&bytes.Buffer{}, "chatty", "")
	require.Equal(t, "info", logger.GetLevel().String())
}
