package remote

import (
	"sync"
	"time"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
	"github.com/launchdarkly/xunit-runner/servicedef"
)

// Recorder is a framework.Reporter that keeps every event so it can be sent to a
// client in one response.
type Recorder struct {
	events  []servicedef.Event
	total   int
	failed  int
	skipped int
	elapsed time.Duration
	lock    sync.Mutex
}

func (r *Recorder) add(e servicedef.Event) {
	r.lock.Lock()
	r.events = append(r.events, e)
	r.lock.Unlock()
}

func (r *Recorder) OnStart(details framework.TestDetails) {
	r.add(servicedef.Event{Kind: servicedef.EventStart, TestID: details.ID})
}

func (r *Recorder) OnFailure(details framework.TestDetails, failure framework.Failure) {
	r.add(servicedef.Event{
		Kind:   servicedef.EventFailure,
		TestID: details.ID,
		Failure: &servicedef.Failure{
			Kind:     string(failure.Kind),
			Message:  failure.Message,
			Location: failure.Location,
		},
	})
}

func (r *Recorder) OnSkip(details framework.TestDetails, reason string) {
	r.add(servicedef.Event{Kind: servicedef.EventSkip, TestID: details.ID, Reason: reason})
}

func (r *Recorder) OnOutput(details framework.TestDetails, output logging.CapturedOutput) {
	lines := make([]servicedef.OutputLine, 0, len(output))
	for _, m := range output {
		lines = append(lines, servicedef.OutputLine{Time: m.Time, Message: m.Message})
	}
	r.add(servicedef.Event{Kind: servicedef.EventOutput, TestID: details.ID, Output: lines})
}

func (r *Recorder) OnFinish(details framework.TestDetails, elapsed time.Duration) {
	r.add(servicedef.Event{Kind: servicedef.EventFinish, TestID: details.ID, Elapsed: elapsed})
}

func (r *Recorder) OnAllComplete(total, failed, skipped int, elapsed time.Duration) {
	r.lock.Lock()
	r.total, r.failed, r.skipped, r.elapsed = total, failed, skipped, elapsed
	r.lock.Unlock()
}

// Response returns everything recorded so far.
func (r *Recorder) Response() servicedef.RunResponse {
	r.lock.Lock()
	defer r.lock.Unlock()
	return servicedef.RunResponse{
		Events:  append([]servicedef.Event{}, r.events...),
		Total:   r.total,
		Failed:  r.failed,
		Skipped: r.skipped,
		Elapsed: r.elapsed,
	}
}

// Replay delivers the events of a response to reporter in their original order,
// followed by a single OnAllComplete. Events for tests not in known are dropped.
func Replay(resp servicedef.RunResponse, known map[int]framework.TestDetails, reporter framework.Reporter) {
	outputReporter, _ := reporter.(framework.OutputReporter)
	for _, e := range resp.Events {
		details, ok := known[e.TestID]
		if !ok {
			continue
		}
		switch e.Kind {
		case servicedef.EventStart:
			reporter.OnStart(details)
		case servicedef.EventFailure:
			if e.Failure == nil {
				continue
			}
			reporter.OnFailure(details, framework.Failure{
				Kind:     framework.FailureKind(e.Failure.Kind),
				Message:  e.Failure.Message,
				Location: e.Failure.Location,
			})
		case servicedef.EventSkip:
			reporter.OnSkip(details, e.Reason)
		case servicedef.EventOutput:
			if outputReporter == nil {
				continue
			}
			output := make(logging.CapturedOutput, 0, len(e.Output))
			for _, line := range e.Output {
				output = append(output, logging.CapturedMessage{Time: line.Time, Message: line.Message})
			}
			outputReporter.OnOutput(details, output)
		case servicedef.EventFinish:
			reporter.OnFinish(details, e.Elapsed)
		}
	}
	reporter.OnAllComplete(resp.Total, resp.Failed, resp.Skipped, resp.Elapsed)
}
