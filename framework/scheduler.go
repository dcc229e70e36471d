package framework

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/launchdarkly/xunit-runner/logging"
)

// SchedulerOptions controls a scheduling pass.
type SchedulerOptions struct {
	// MaxConcurrent is the most tests that may run at once. Zero means no limit.
	MaxConcurrent int
	// Seed determines the order tests are started in. Zero means a random seed.
	Seed int64
	// TimeLimit is reported as the time limit of tests that do not declare one.
	TimeLimit time.Duration
	// Logger receives diagnostics, including the cause of crashed tests.
	Logger logging.Logger
}

// Summary is the outcome of one scheduling pass.
type Summary struct {
	RunID   string
	Total   int
	Failed  int
	Skipped int
	Elapsed time.Duration
	Seed    int64
}

func (s Summary) OK() bool {
	return s.Failed == 0
}

// Scheduler runs test units concurrently, isolating each unit's failures from the
// others and reporting every lifecycle event.
type Scheduler struct {
	reporter *serializedReporter
	options  SchedulerOptions
	logger   logging.Logger
}

func NewScheduler(reporter Reporter, options SchedulerOptions) *Scheduler {
	if options.MaxConcurrent < 0 {
		panic("max concurrency cannot be negative")
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.NullLogger()
	}
	return &Scheduler{
		reporter: serialize(reporter),
		options:  options,
		logger:   logger,
	}
}

// Run executes every unit exactly once and blocks until all of them have finished.
// Tests are started in a random order. A running test is never interrupted, even if
// it exceeds its time limit.
func (s *Scheduler) Run(units []ActiveTestUnit) Summary {
	start := time.Now()

	seed := s.options.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	active := append([]ActiveTestUnit(nil), units...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(active), func(i, j int) { active[i], active[j] = active[j], active[i] })

	maxConcurrent := int64(s.options.MaxConcurrent)
	if maxConcurrent == 0 {
		maxConcurrent = math.MaxInt64
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	runID := uuid.New().String()
	s.logger.Printf("Starting test run %s: %d tests, max concurrency %d, seed %d",
		runID, len(active), s.options.MaxConcurrent, seed)

	var counts runCounts
	var wg sync.WaitGroup
	for _, unit := range active {
		// acquired before the goroutine starts, so tests start in shuffled order
		if err := sem.Acquire(context.Background(), 1); err != nil {
			panic(fmt.Sprintf("unable to acquire a test slot: %s", err))
		}
		wg.Add(1)
		go func(unit ActiveTestUnit) {
			defer wg.Done()
			defer sem.Release(1)
			s.runUnit(unit, &counts)
		}(unit)
	}
	wg.Wait()

	summary := Summary{
		RunID:   runID,
		Total:   int(counts.total.Load()),
		Failed:  int(counts.failed.Load()),
		Skipped: int(counts.skipped.Load()),
		Elapsed: time.Since(start),
		Seed:    seed,
	}
	s.reporter.OnAllComplete(summary.Total, summary.Failed, summary.Skipped, summary.Elapsed)
	s.logger.Printf("Finished test run %s: %d run, %d failed, %d skipped in %s",
		runID, summary.Total, summary.Failed, summary.Skipped, summary.Elapsed)
	return summary
}

type outcome int

const (
	outcomePassed outcome = iota
	outcomeFailed
	outcomeSkipped
	outcomeNotRun
)

// runCounts is shared by all units of a run. Units skipped by their Skip attribute are
// never invoked, so they count as skipped without counting towards the total.
type runCounts struct {
	total, failed, skipped atomic.Int64
}

func (c *runCounts) add(o outcome) {
	switch o {
	case outcomeFailed:
		c.total.Add(1)
		c.failed.Add(1)
	case outcomeSkipped:
		c.total.Add(1)
		c.skipped.Add(1)
	case outcomeNotRun:
		c.skipped.Add(1)
	default:
		c.total.Add(1)
	}
}

func (s *Scheduler) runUnit(unit ActiveTestUnit, counts *runCounts) {
	details := unit.Details
	if details.TimeLimit == 0 {
		details.TimeLimit = s.options.TimeLimit
	}

	if reason, ok := details.SkipReason(); ok {
		s.reporter.OnSkip(details, reason)
		counts.add(outcomeNotRun)
		return
	}

	t := newT(details, s.reporter, s.logger)
	s.reporter.OnStart(details)
	testStart := time.Now()
	returned := false
	defer func() {
		if !returned {
			// the body neither returned nor panicked: something called runtime.Goexit,
			// such as FailNow on a *testing.T captured by the body
			s.logger.Printf("test %s exited its goroutine without returning", details)
			t.fail(Failure{Kind: FailureCrash, Message: CrashMessage, Location: details.Location})
		}
		counts.add(s.finish(t, details, time.Since(testStart)))
	}()
	t.run(unit.Body)
	returned = true
}

// finish reports the end of an invoked unit. It runs however the body ended.
func (s *Scheduler) finish(t *T, details TestDetails, elapsed time.Duration) outcome {
	result := outcomePassed
	if t.Failed() {
		result = outcomeFailed
	} else if skipped, reason := t.isSkipped(); skipped {
		s.reporter.OnSkip(details, reason)
		result = outcomeSkipped
	}

	if output := t.debugLogger.Output(); len(output) > 0 {
		s.reporter.OnOutput(details, output)
	}
	s.reporter.OnFinish(details, elapsed)
	return result
}
