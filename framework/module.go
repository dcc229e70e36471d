package framework

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/launchdarkly/xunit-runner/logging"
)

// ErrModuleNotFound is wrapped by the LoadError returned for unknown module names.
var ErrModuleNotFound = errors.New("no test module registered with that name")

// RunOptions are the host's settings for one run of a module.
type RunOptions struct {
	// TimeLimit is the time limit reported for tests that do not declare one. It is
	// not enforced.
	TimeLimit     time.Duration
	MaxConcurrent int
	Seed          int64
}

// Module is the boundary between a host process and a set of compiled tests.
type Module interface {
	// EnumerateTestDetails calls visit once for every Fact and every Theory instance,
	// without running anything. The result is the same every time it is called.
	EnumerateTestDetails(visit func(TestDetails))
	// FilteredTestsRunner runs the tests for which predicate returns true, and returns
	// the number that failed.
	FilteredTestsRunner(options RunOptions, reporter Reporter, predicate func(TestDetails) bool) int
}

// LocalModule exposes the tests of a Registry in this process.
type LocalModule struct {
	registry *Registry
	logger   logging.Logger
}

func NewModule(registry *Registry, logger logging.Logger) *LocalModule {
	if logger == nil {
		logger = logging.NullLogger()
	}
	return &LocalModule{registry: registry, logger: logger}
}

func (m *LocalModule) EnumerateTestDetails(visit func(TestDetails)) {
	m.registry.Seal()
	for _, unit := range m.registry.Units() {
		visit(unit.Details)
	}
}

func (m *LocalModule) FilteredTestsRunner(options RunOptions, reporter Reporter, predicate func(TestDetails) bool) int {
	summary := m.Run(options, reporter, predicate)
	return summary.Failed
}

// Run is like FilteredTestsRunner but returns the whole Summary.
func (m *LocalModule) Run(options RunOptions, reporter Reporter, predicate func(TestDetails) bool) Summary {
	m.registry.Seal()
	var selected []ActiveTestUnit
	for _, unit := range m.registry.Units() {
		if predicate == nil || predicate(unit.Details) {
			selected = append(selected, unit)
		}
	}
	scheduler := NewScheduler(reporter, SchedulerOptions{
		MaxConcurrent: options.MaxConcurrent,
		Seed:          options.Seed,
		TimeLimit:     options.TimeLimit,
		Logger:        m.logger,
	})
	return scheduler.Run(selected)
}

// LoadError means a host could not obtain a usable Module.
type LoadError struct {
	Module string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load test module %q: %s", e.Module, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var (
	modules     = make(map[string]Module)
	modulesLock sync.RWMutex
)

// RegisterModule makes a Module available to LoadModule. Linked test packages call it
// from an init function. Registering the same name twice panics.
func RegisterModule(name string, module Module) {
	if module == nil {
		panic(fmt.Sprintf("test module %q is nil", name))
	}
	modulesLock.Lock()
	defer modulesLock.Unlock()
	if _, exists := modules[name]; exists {
		panic(fmt.Sprintf("test module %q registered twice", name))
	}
	modules[name] = module
}

func LoadModule(name string) (Module, error) {
	modulesLock.RLock()
	defer modulesLock.RUnlock()
	m, ok := modules[name]
	if !ok {
		return nil, &LoadError{Module: name, Err: ErrModuleNotFound}
	}
	return m, nil
}

// ModuleNames returns the names of all registered modules, sorted.
func ModuleNames() []string {
	modulesLock.RLock()
	defer modulesLock.RUnlock()
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
