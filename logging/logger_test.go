package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCapturingLoggerKeepsMessagesInOrder(t *testing.T) {
	var l CapturingLogger
	l.Printf("first %d", 1)
	l.Printf("second %s", "x")

	out := l.Output()
	require.Len(t, out, 2)
	assert.Equal(t, "first 1", out[0].Message)
	assert.Equal(t, "second x", out[1].Message)
}

func TestCapturingLoggerIsSafeForConcurrentUse(t *testing.T) {
	var l CapturingLogger
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Printf("message %d", n)
		}(i)
	}
	wg.Wait()
	assert.Len(t, l.Output(), 20)
}

func TestCapturedOutputDump(t *testing.T) {
	var l CapturingLogger
	l.Printf("hello")
	var buf bytes.Buffer
	l.Output().Dump(&buf, "  DEBUG ")

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "  DEBUG ["))
	assert.True(t, strings.HasSuffix(line, "] hello\n"))
}

func TestCapturedOutputDumpIndentsContinuationLines(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 4, 5, 6e6, time.UTC)
	output := CapturedOutput{
		{Time: at, Message: "request:\nGET /\n"},
		{Time: at, Message: "done"},
	}
	var buf bytes.Buffer
	output.Dump(&buf, "> ")

	assert.Equal(t,
		"> [13:04:05.006] request:\n"+
			"                 GET /\n"+
			"> [13:04:05.006] done\n",
		buf.String())
}

func TestNullLoggerDiscards(t *testing.T) {
	NullLogger().Printf("ignored %s", "value")
}

func TestWrapZapLogsAtDebugLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	WrapZap(zap.New(core)).Printf("loaded %d modules", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "loaded 3 modules", entries[0].Message)
}
