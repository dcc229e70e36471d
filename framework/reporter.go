package framework

import (
	"sync"
	"time"

	"github.com/launchdarkly/xunit-runner/logging"
)

// FailureKind distinguishes expected assertion failures from unexpected errors.
type FailureKind string

const (
	// FailureAssertion is a failed assertion made through T.
	FailureAssertion FailureKind = "assertion"
	// FailureError is a panic whose value was an error.
	FailureError FailureKind = "error"
	// FailureCrash is any other panic. Its cause is not exposed to reporters.
	FailureCrash FailureKind = "crash"
)

// CrashMessage is reported for panics that carry neither an assertion nor an error.
const CrashMessage = "unknown panic caught: test has crashed"

type Failure struct {
	Kind     FailureKind
	Message  string
	Location SourceLocation
}

// Reporter receives lifecycle events from the Scheduler.
//
// Methods are called from whichever goroutine is running a test. Calls to the same
// method never overlap, but calls to different methods may.
type Reporter interface {
	OnStart(details TestDetails)
	OnFailure(details TestDetails, failure Failure)
	OnSkip(details TestDetails, reason string)
	OnFinish(details TestDetails, elapsed time.Duration)
	OnAllComplete(total, failed, skipped int, elapsed time.Duration)
}

// OutputReporter is implemented by reporters that want the debug output a test
// produced through T.Debug. OnOutput is called before OnFinish, and only when there
// is output.
type OutputReporter interface {
	OnOutput(details TestDetails, output logging.CapturedOutput)
}

type nullReporter struct{}

func NullReporter() Reporter { return nullReporter{} }

func (nullReporter) OnStart(TestDetails)                        {}
func (nullReporter) OnFailure(TestDetails, Failure)             {}
func (nullReporter) OnSkip(TestDetails, string)                 {}
func (nullReporter) OnFinish(TestDetails, time.Duration)        {}
func (nullReporter) OnAllComplete(int, int, int, time.Duration) {}

// serializedReporter gives each kind of event its own critical section.
type serializedReporter struct {
	target     Reporter
	startLock  sync.Mutex
	failLock   sync.Mutex
	skipLock   sync.Mutex
	outputLock sync.Mutex
	finishLock sync.Mutex
}

func serialize(r Reporter) *serializedReporter {
	if r == nil {
		r = NullReporter()
	}
	return &serializedReporter{target: r}
}

func (s *serializedReporter) OnStart(details TestDetails) {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	s.target.OnStart(details)
}

func (s *serializedReporter) OnFailure(details TestDetails, failure Failure) {
	s.failLock.Lock()
	defer s.failLock.Unlock()
	s.target.OnFailure(details, failure)
}

func (s *serializedReporter) OnSkip(details TestDetails, reason string) {
	s.skipLock.Lock()
	defer s.skipLock.Unlock()
	s.target.OnSkip(details, reason)
}

func (s *serializedReporter) OnOutput(details TestDetails, output logging.CapturedOutput) {
	or, ok := s.target.(OutputReporter)
	if !ok {
		return
	}
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	or.OnOutput(details, output)
}

func (s *serializedReporter) OnFinish(details TestDetails, elapsed time.Duration) {
	s.finishLock.Lock()
	defer s.finishLock.Unlock()
	s.target.OnFinish(details, elapsed)
}

// OnAllComplete is called exactly once, after every test goroutine has exited, so it
// needs no lock.
func (s *serializedReporter) OnAllComplete(total, failed, skipped int, elapsed time.Duration) {
	s.target.OnAllComplete(total, failed, skipped, elapsed)
}
