package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "INFO", LevelInfo.String())
	require.Equal(t, "WARN", LevelWarn.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(99).String())
}

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	Info(CatLedger, "token minted", "id", 3, "owner", "0xabc")

	out := buf.String()
	require.Contains(t, out, "[INFO]", "output should contain level")
	require.Contains(t, out, "[ledger]", "output should contain category")
	require.Contains(t, out, "token minted", "output should contain message")
	require.Contains(t, out, "id=3", "output should contain first field pair")
	require.Contains(t, out, "owner=0xabc", "output should contain second field pair")
}

func TestMinLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetMinLevel(LevelWarn)
	defer SetMinLevel(LevelDebug)

	Debug(CatStore, "should be filtered")
	Info(CatStore, "should also be filtered")
	Warn(CatStore, "should appear")

	out := buf.String()
	require.NotContains(t, out, "should be filtered")
	require.NotContains(t, out, "should also be filtered")
	require.Contains(t, out, "should appear")
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)
	SetEnabled(false)
	defer SetEnabled(true)

	Error(CatAPI, "dropped")
	require.Empty(t, buf.String(), "disabled logger should not write")
}

func TestErrorErrAppendsError(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	ErrorErr(CatConfig, "load failed", errSentinel{})

	require.Contains(t, buf.String(), "error=boom")
}

func TestOddFieldCount(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	Info(CatTrace, "odd", "orphan")

	require.Contains(t, buf.String(), "orphan=<missing>")
}

func TestMultipleLines(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf)

	Info(CatLedger, "first")
	Info(CatLedger, "second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
}

type errSentinel struct{}

func (errSentinel) Error() string { return "boom" }
