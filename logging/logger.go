package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const timestampFormat = "15:04:05.000"

type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger buffers messages so they can be handed to a reporter once a test
// has finished. It is safe to use from goroutines started by the test body.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append(CapturedOutput(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Dump writes one line per message, each starting with prefix and the message time.
// Continuation lines of a multi-line message are indented to line up with its first
// line.
func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		stamp := fmt.Sprintf("%s[%s] ", prefix, m.Time.Format(timestampFormat))
		indent := strings.Repeat(" ", utf8.RuneCountInString(stamp))
		for i, line := range strings.Split(strings.TrimRight(m.Message, "\n"), "\n") {
			if i == 0 {
				fmt.Fprintf(dest, "%s%s\n", stamp, line)
			} else {
				fmt.Fprintf(dest, "%s%s\n", indent, line)
			}
		}
	}
}
