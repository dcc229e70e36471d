package framework

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/launchdarkly/xunit-runner/logging"
)

var (
	tMethodPrefix = reflect.TypeOf((*T)(nil)).Elem().PkgPath() + ".(*T)."
	ignoredFrames = []string{
		tMethodPrefix,
		"github.com/stretchr/testify/",
		"runtime.",
		"testing.",
	}
)

// T is passed to every test body. It is used like Go's *testing.T: it implements the
// TestingT interfaces of testify's assert and require packages, so assertions can be
// made by passing the *T where a *testing.T would go.
//
// Errorf records a failure and lets the test continue; FailNow and Skip end the test
// immediately by unwinding the test's goroutine.
type T struct {
	details     TestDetails
	reporter    Reporter
	debugLogger logging.CapturingLogger
	crashLogger logging.Logger
	failed      bool
	skipped     bool
	skipReason  string
	lock        sync.Mutex
}

func newT(details TestDetails, reporter Reporter, crashLogger logging.Logger) *T {
	if crashLogger == nil {
		crashLogger = logging.NullLogger()
	}
	return &T{details: details, reporter: reporter, crashLogger: crashLogger}
}

// Details returns the metadata of the running unit.
func (t *T) Details() TestDetails {
	return t.details
}

func (t *T) Name() string {
	return t.details.FullName()
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.fail(Failure{
		Kind:     FailureAssertion,
		Message:  reformatMessage(fmt.Sprintf(format, args...)),
		Location: callerLocation(),
	})
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.lock.Lock()
	t.failed = true
	t.lock.Unlock()
	panic(t)
}

// Fatalf is equivalent to Errorf followed by FailNow.
func (t *T) Fatalf(format string, args ...interface{}) {
	t.Errorf(format, args...)
	t.FailNow()
}

// Helper is a no-op; it exists so testify can treat T like a *testing.T.
func (t *T) Helper() {}

func (t *T) Failed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.failed
}

// Skip ends the test immediately and reports it as skipped.
func (t *T) Skip() {
	t.lock.Lock()
	t.skipped = true
	t.lock.Unlock()
	panic(t)
}

func (t *T) SkipWithReason(reason string) {
	t.lock.Lock()
	t.skipReason = reason
	t.lock.Unlock()
	t.Skip()
}

// Debug logs some debug output for the test. The output is passed to reporters that
// implement OutputReporter when the test finishes.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

func (t *T) DebugLogger() logging.Logger {
	return &t.debugLogger
}

func (t *T) fail(failure Failure) {
	t.lock.Lock()
	t.failed = true
	t.lock.Unlock()
	t.reporter.OnFailure(t.details, failure)
}

func (t *T) isSkipped() (bool, string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.skipped, t.skipReason
}

// run invokes the body and converts anything that escapes it into a failure, so that
// nothing propagates past this call.
func (t *T) run(body func(*T)) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if skipped, _ := t.isSkipped(); skipped {
			return
		}
		if rt, ok := r.(*T); ok && rt == t {
			t.lock.Lock()
			silent := !t.failed
			t.lock.Unlock()
			if silent {
				t.fail(Failure{Kind: FailureAssertion, Message: "test failed with no failure message", Location: t.details.Location})
			}
			return
		}
		if err, ok := r.(error); ok {
			t.fail(Failure{Kind: FailureError, Message: err.Error(), Location: t.details.Location})
			return
		}
		t.crashLogger.Printf("unexpected panic in test %s: %+v\n%s", t.details, r, string(debug.Stack()))
		t.fail(Failure{Kind: FailureCrash, Message: CrashMessage, Location: t.details.Location})
	}()

	if body == nil {
		panic(errors.New("test has no body"))
	}
	body(t)
}

// callerLocation finds the first stack frame that belongs to neither this package's
// T methods nor an assertion library.
func callerLocation() SourceLocation {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isIgnoredFrame(frame.Function) {
			return SourceLocation{File: frame.File, Line: frame.Line}
		}
		if !more {
			return SourceLocation{}
		}
	}
}

func isIgnoredFrame(function string) bool {
	for _, prefix := range ignoredFrames {
		if strings.HasPrefix(function, prefix) {
			return true
		}
	}
	return false
}

// reformatMessage strips the leading newline and indentation testify puts in front
// of its failure output.
func reformatMessage(message string) string {
	lines := strings.Split(strings.TrimLeft(message, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(strings.TrimPrefix(line, "\t"), " \t")
	}
	return strings.Join(lines, "\n")
}
