// Package metrics exports test run results as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/launchdarkly/xunit-runner/framework"
)

const Namespace = "xunit"

const (
	resultPass = "pass"
	resultFail = "fail"
	resultSkip = "skip"
)

// Reporter is a framework.Reporter that records every lifecycle event as a metric.
type Reporter struct {
	testsStarted *prometheus.CounterVec
	testResults  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	testDuration *prometheus.HistogramVec
	runTests     *prometheus.GaugeVec
	runDuration  prometheus.Gauge
	runsTotal    prometheus.Counter

	outcomes map[int]string
	lock     sync.Mutex
}

// NewReporter registers its collectors with reg. Passing prometheus.DefaultRegisterer
// makes the metrics visible to promhttp.Handler.
func NewReporter(reg prometheus.Registerer) *Reporter {
	factory := promauto.With(reg)
	return &Reporter{
		testsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_started_total",
			Help:      "Number of tests whose body was started",
		}, []string{"suite"}),
		testResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "test_results_total",
			Help:      "Number of finished tests by result",
		}, []string{"suite", "result"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "failures_total",
			Help:      "Number of reported failures by kind",
		}, []string{"suite", "kind"}),
		testDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "test_duration_seconds",
			Help:      "Wall-clock time taken by each test",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"suite"}),
		runTests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_tests",
			Help:      "Test counts of the most recent run",
		}, []string{"result"}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the most recent run",
		}),
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Number of completed runs",
		}),
		outcomes: make(map[int]string),
	}
}

func (r *Reporter) OnStart(details framework.TestDetails) {
	r.testsStarted.WithLabelValues(details.Suite).Inc()
	r.lock.Lock()
	r.outcomes[details.ID] = resultPass
	r.lock.Unlock()
}

func (r *Reporter) OnFailure(details framework.TestDetails, failure framework.Failure) {
	r.failures.WithLabelValues(details.Suite, string(failure.Kind)).Inc()
	r.lock.Lock()
	r.outcomes[details.ID] = resultFail
	r.lock.Unlock()
}

func (r *Reporter) OnSkip(details framework.TestDetails, _ string) {
	r.lock.Lock()
	_, started := r.outcomes[details.ID]
	if !started {
		// skipped by attribute; there will be no OnFinish
		r.lock.Unlock()
		r.testResults.WithLabelValues(details.Suite, resultSkip).Inc()
		return
	}
	if r.outcomes[details.ID] != resultFail {
		r.outcomes[details.ID] = resultSkip
	}
	r.lock.Unlock()
}

func (r *Reporter) OnFinish(details framework.TestDetails, elapsed time.Duration) {
	r.lock.Lock()
	result, ok := r.outcomes[details.ID]
	delete(r.outcomes, details.ID)
	r.lock.Unlock()
	if !ok {
		result = resultPass
	}
	r.testResults.WithLabelValues(details.Suite, result).Inc()
	r.testDuration.WithLabelValues(details.Suite).Observe(elapsed.Seconds())
}

func (r *Reporter) OnAllComplete(total, failed, skipped int, elapsed time.Duration) {
	r.runTests.WithLabelValues("total").Set(float64(total))
	r.runTests.WithLabelValues(resultFail).Set(float64(failed))
	r.runTests.WithLabelValues(resultSkip).Set(float64(skipped))
	r.runDuration.Set(elapsed.Seconds())
	r.runsTotal.Inc()
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
