// Package remote lets a test module run in another process. Service exposes a
// framework.Module over HTTP, and Client is a framework.Module backed by such a service.
package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
	"github.com/launchdarkly/xunit-runner/servicedef"
)

// CapabilityRunByID means the service accepts a list of test IDs in RunParams.
const CapabilityRunByID = "run-by-id"

type summaryRunner interface {
	Run(options framework.RunOptions, reporter framework.Reporter, predicate func(framework.TestDetails) bool) framework.Summary
}

type Service struct {
	name   string
	module framework.Module
	logger logging.Logger
	mux    *http.ServeMux
}

// NewService returns an http.Handler serving module:
//
//	GET  /       status information
//	GET  /tests  the details of every test
//	POST /run    runs tests and returns their events
func NewService(name string, module framework.Module, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.NullLogger()
	}
	s := &Service{name: name, module: module, logger: logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.getStatus)
	s.mux.HandleFunc("GET "+servicedef.PathTests, s.getTests)
	s.mux.HandleFunc("POST "+servicedef.PathRun, s.postRun)
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Service) allDetails() []framework.TestDetails {
	details := []framework.TestDetails{}
	s.module.EnumerateTestDetails(func(d framework.TestDetails) {
		details = append(details, d)
	})
	return details
}

func (s *Service) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, servicedef.StatusInfo{
		Name:         s.name,
		Capabilities: []string{CapabilityRunByID},
		TestCount:    len(s.allDetails()),
	})
}

func (s *Service) getTests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.allDetails())
}

func (s *Service) postRun(w http.ResponseWriter, r *http.Request) {
	var params servicedef.RunParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, fmt.Sprintf("malformed run parameters: %s", err), http.StatusBadRequest)
		return
	}
	if params.MaxConcurrent.OrElse(0) < 0 {
		http.Error(w, "maxConcurrent cannot be negative", http.StatusBadRequest)
		return
	}

	options := framework.RunOptions{
		TimeLimit:     time.Duration(params.TimeLimitMS.OrElse(0)) * time.Millisecond,
		MaxConcurrent: params.MaxConcurrent.OrElse(0),
		Seed:          params.Seed,
	}
	var predicate func(framework.TestDetails) bool
	if len(params.IDs) > 0 {
		ids := make(map[int]bool, len(params.IDs))
		for _, id := range params.IDs {
			ids[id] = true
		}
		predicate = func(d framework.TestDetails) bool { return ids[d.ID] }
	}

	s.logger.Printf("Running %d requested tests (0 means all)", len(params.IDs))
	recorder := &Recorder{}
	var runID string
	seed := params.Seed
	if sr, ok := s.module.(summaryRunner); ok {
		summary := sr.Run(options, recorder, predicate)
		runID, seed = summary.RunID, summary.Seed
	} else {
		s.module.FilteredTestsRunner(options, recorder, predicate)
	}

	resp := recorder.Response()
	resp.RunID = runID
	resp.Seed = seed
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
