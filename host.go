package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/launchdarkly/xunit-runner/framework"
	"github.com/launchdarkly/xunit-runner/logging"
	"github.com/launchdarkly/xunit-runner/metrics"
	"github.com/launchdarkly/xunit-runner/remote"
	"github.com/launchdarkly/xunit-runner/reporting"
)

const (
	statusQueryTimeout = time.Second * 10
	maxExitStatus      = 125
)

type namedModule struct {
	name   string
	module framework.Module
}

type host struct {
	params         commandParams
	program        string
	out            io.Writer
	errOut         io.Writer
	logger         logging.Logger
	connectTimeout time.Duration
}

// loadModules returns every module that could be loaded. Load errors are written to
// errOut and do not stop the others from loading.
func (h *host) loadModules() []namedModule {
	names := h.params.modules
	if len(names) == 0 && len(h.params.urls) == 0 {
		names = framework.ModuleNames()
	}

	var loaded []namedModule
	for _, name := range names {
		m, err := framework.LoadModule(name)
		if err != nil {
			fmt.Fprintln(h.errOut, err)
			continue
		}
		loaded = append(loaded, namedModule{name: name, module: m})
	}
	timeout := h.connectTimeout
	if timeout == 0 {
		timeout = statusQueryTimeout
	}
	for _, url := range h.params.urls {
		client, err := remote.Connect(url, timeout, h.logger, h.out)
		if err != nil {
			fmt.Fprintln(h.errOut, &framework.LoadError{Module: url, Err: err})
			continue
		}
		loaded = append(loaded, namedModule{name: url, module: client})
	}
	return loaded
}

// list prints the tests each module would run, without running them.
func (h *host) list(modules []namedModule) {
	query := h.params.query()
	for _, nm := range modules {
		nm.module.EnumerateTestDetails(func(d framework.TestDetails) {
			if !query.Matches(d) {
				return
			}
			fmt.Fprintln(h.out)
			d.Attributes.Each(func(key, value string) {
				fmt.Fprintf(h.out, "[%s = %s]\n", key, value)
			})
			fmt.Fprintln(h.out, d)
		})
	}
}

func (h *host) reporter(registry prometheus.Registerer) (framework.Reporter, *reporting.XMLFile) {
	reporters := []framework.Reporter{
		reporting.NewConsole(h.out, reporting.ConsoleOptions{
			Verbose:              h.params.verbose,
			VeryVerbose:          h.params.veryVerbose,
			DebugOutputOnFailure: h.params.debug || h.params.debugAll,
			DebugOutputOnSuccess: h.params.debugAll,
			NoColor:              h.params.noColor,
		}),
	}
	var xmlFile *reporting.XMLFile
	if h.params.xmlFile != "" {
		xmlFile = reporting.NewXMLFile(h.params.xmlFile, h.logger)
		reporters = append(reporters, xmlFile)
	}
	if h.params.table {
		reporters = append(reporters, reporting.NewTable(h.out, reporting.TableOptions{NoColor: h.params.noColor}))
	}
	if registry != nil {
		reporters = append(reporters, metrics.NewReporter(registry))
	}
	return reporting.NewMulti(reporters...), xmlFile
}

// serveMetrics starts an HTTP server for the metrics registry. The returned function
// stops it.
func (h *host) serveMetrics(registry *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", h.params.metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("unable to listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Printf("metrics server stopped: %s", err)
		}
	}()
	h.logger.Printf("serving metrics on http://%s/metrics", listener.Addr())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

// run runs the selected tests of every module and returns the total number of
// failures.
func (h *host) run(modules []namedModule) (int, error) {
	var registerer prometheus.Registerer
	if h.params.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		stop, err := h.serveMetrics(registry)
		if err != nil {
			return 0, err
		}
		defer stop()
		registerer = registry
	}
	reporter, xmlFile := h.reporter(registerer)

	seed := h.params.seed
	if seed == 0 {
		seed = rand.Int63()
	}
	options := framework.RunOptions{
		TimeLimit:     h.params.timeLimit,
		MaxConcurrent: h.params.maxConcurrent,
		Seed:          seed,
	}

	query := h.params.query()
	if !query.IsEmpty() {
		query.Describe(h.out)
	}

	failures := 0
	for _, nm := range modules {
		h.logger.Printf("running module %s with seed %d", nm.name, seed)
		failures += nm.module.FilteredTestsRunner(options, reporter, query.AsFilter())
	}

	if xmlFile != nil && xmlFile.Err() != nil {
		fmt.Fprintf(h.errOut, "unable to write XML results: %s\n", xmlFile.Err())
	}
	if failures > 0 {
		fmt.Fprintln(h.out)
		fmt.Fprintln(h.out, "To run the same selection again with the same seed:")
		fmt.Fprintf(h.out, "  %s\n", h.params.rerunCommand(h.program, seed))
	}
	return failures, nil
}

func exitStatus(failures int) int {
	if failures > maxExitStatus {
		return maxExitStatus
	}
	return failures
}
