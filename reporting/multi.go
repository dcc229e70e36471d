// Package reporting contains the reporters that turn test lifecycle events into
// console output, result files and summary tables.
package reporting

import (
	"time"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
)

// Multi forwards every event to each of its reporters in order.
type Multi []framework.Reporter

// NewMulti ignores nil reporters.
func NewMulti(reporters ...framework.Reporter) Multi {
	m := make(Multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m Multi) OnStart(details framework.TestDetails) {
	for _, r := range m {
		r.OnStart(details)
	}
}

func (m Multi) OnFailure(details framework.TestDetails, failure framework.Failure) {
	for _, r := range m {
		r.OnFailure(details, failure)
	}
}

func (m Multi) OnSkip(details framework.TestDetails, reason string) {
	for _, r := range m {
		r.OnSkip(details, reason)
	}
}

func (m Multi) OnOutput(details framework.TestDetails, output logging.CapturedOutput) {
	for _, r := range m {
		if or, ok := r.(framework.OutputReporter); ok {
			or.OnOutput(details, output)
		}
	}
}

func (m Multi) OnFinish(details framework.TestDetails, elapsed time.Duration) {
	for _, r := range m {
		r.OnFinish(details, elapsed)
	}
}

func (m Multi) OnAllComplete(total, failed, skipped int, elapsed time.Duration) {
	for _, r := range m {
		r.OnAllComplete(total, failed, skipped, elapsed)
	}
}
