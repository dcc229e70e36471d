// Package servicedef defines the JSON messages exchanged between the runner and a
// remote test service.
package servicedef

import (
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/xunit-runner/framework"
)

const (
	PathTests = "/tests"
	PathRun   = "/run"
)

const (
	EventStart   = "start"
	EventFailure = "failure"
	EventSkip    = "skip"
	EventOutput  = "output"
	EventFinish  = "finish"
)

// StatusInfo is returned by a status query to the service root.
type StatusInfo struct {
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
	TestCount    int      `json:"testCount"`
}

// RunParams asks the service to run a set of tests. An empty IDs list runs every test.
type RunParams struct {
	IDs           []int               `json:"ids,omitempty"`
	TimeLimitMS   ldvalue.OptionalInt `json:"timeLimitMs,omitempty"`
	MaxConcurrent ldvalue.OptionalInt `json:"maxConcurrent,omitempty"`
	Seed          int64               `json:"seed,omitempty"`
}

// RunResponse carries every event of a run in the order the service observed them.
type RunResponse struct {
	RunID   string        `json:"runId,omitempty"`
	Events  []Event       `json:"events"`
	Total   int           `json:"total"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
	Seed    int64         `json:"seed,omitempty"`
}

type Event struct {
	Kind    string        `json:"kind"`
	TestID  int           `json:"testId"`
	Failure *Failure      `json:"failure,omitempty"`
	Reason  string        `json:"reason,omitempty"`
	Output  []OutputLine  `json:"output,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

type Failure struct {
	Kind     string                   `json:"kind"`
	Message  string                   `json:"message"`
	Location framework.SourceLocation `json:"location"`
}

type OutputLine struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}
