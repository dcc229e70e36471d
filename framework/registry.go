package framework

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Test IDs and group IDs are unique across every Registry in the process.
var (
	lastTestID  atomic.Int64
	lastGroupID atomic.Int64
)

func nextTestID() int  { return int(lastTestID.Add(1)) }
func nextGroupID() int { return int(lastGroupID.Add(1)) }

// Declaration is the metadata supplied when a test is registered.
type Declaration struct {
	Name       string
	Suite      string
	Attributes Attributes
	// TimeLimit is informational; tests that run longer are not interrupted.
	TimeLimit time.Duration
	// Location defaults to the caller of the registration function.
	Location SourceLocation
}

// Fact is a test with exactly one runnable instance.
type Fact struct {
	details TestDetails
	body    func(*T)
}

func (f Fact) Details() TestDetails { return f.details }

// Theory is a test bound to each element produced by its data provider.
type Theory struct {
	details   TestDetails
	instances []ActiveTestUnit
}

// Details returns the metadata shared by all instances; ID and Params are those of
// the declaration rather than of any one instance.
func (t Theory) Details() TestDetails { return t.details }

func (t Theory) Instances() []ActiveTestUnit {
	return append([]ActiveTestUnit(nil), t.instances...)
}

// ActiveTestUnit is one bound, runnable test invocation.
type ActiveTestUnit struct {
	Details TestDetails
	Body    func(*T)
}

// Registry holds every declared test. Tests are registered during startup; once the
// registry has been enumerated or run it is sealed, and further registration panics.
type Registry struct {
	facts    []Fact
	theories []Theory
	sealed   bool
	lock     sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry used by the package-level
// registration functions.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() { defaultRegistry = NewRegistry() })
	return defaultRegistry
}

// RegisterFact adds a Fact to the default registry.
func RegisterFact(decl Declaration, body func(*T)) {
	decl.Location = locationOrCaller(decl.Location, 2)
	DefaultRegistry().Fact(decl, body)
}

// RegisterTheory adds a Theory to the default registry.
func RegisterTheory[A any](decl Declaration, provider func() []A, body func(*T, A)) {
	decl.Location = locationOrCaller(decl.Location, 2)
	AddTheory[A](DefaultRegistry(), decl, provider, body)
}

// Fact registers a test with a single invocation.
func (r *Registry) Fact(decl Declaration, body func(*T)) {
	if body == nil {
		panic(fmt.Sprintf("fact %q has no body", decl.Name))
	}
	decl.Location = locationOrCaller(decl.Location, 2)
	id := nextTestID()
	details := newDetails(decl, id, nextGroupID(), 1, "")

	r.lock.Lock()
	defer r.lock.Unlock()
	r.checkNotSealed(decl.Name)
	r.facts = append(r.facts, Fact{details: details, body: body})
}

// AddTheory registers a parameterized test. The provider is called once, immediately;
// each element it returns is copied into its own instance of the body, so instances
// can safely run concurrently.
func AddTheory[A any](r *Registry, decl Declaration, provider func() []A, body func(*T, A)) {
	if body == nil {
		panic(fmt.Sprintf("theory %q has no body", decl.Name))
	}
	if provider == nil {
		panic(fmt.Sprintf("theory %q has no data provider", decl.Name))
	}
	decl.Location = locationOrCaller(decl.Location, 2)

	data := provider()
	groupID := nextGroupID()
	theory := Theory{details: newDetails(decl, 0, groupID, len(data), "")}
	for _, arg := range data {
		details := newDetails(decl, nextTestID(), groupID, len(data), renderParams(arg))
		theory.instances = append(theory.instances, ActiveTestUnit{
			Details: details,
			Body:    func(t *T) { body(t, arg) },
		})
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.checkNotSealed(decl.Name)
	r.theories = append(r.theories, theory)
}

func (r *Registry) checkNotSealed(name string) {
	if r.sealed {
		panic(fmt.Sprintf("test %q was registered after the registry was sealed", name))
	}
}

// Seal marks the end of the registration phase.
func (r *Registry) Seal() {
	r.lock.Lock()
	r.sealed = true
	r.lock.Unlock()
}

func (r *Registry) Facts() []Fact {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]Fact(nil), r.facts...)
}

func (r *Registry) Theories() []Theory {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return append([]Theory(nil), r.theories...)
}

// Units flattens every Fact and every Theory instance, in registration order.
func (r *Registry) Units() []ActiveTestUnit {
	r.lock.RLock()
	defer r.lock.RUnlock()
	var units []ActiveTestUnit
	for _, f := range r.facts {
		units = append(units, ActiveTestUnit{Details: f.details, Body: f.body})
	}
	for _, t := range r.theories {
		units = append(units, t.instances...)
	}
	return units
}

func newDetails(decl Declaration, id, groupID, groupSize int, params string) TestDetails {
	return TestDetails{
		ID:         id,
		GroupID:    groupID,
		GroupSize:  groupSize,
		Name:       decl.Name,
		Params:     params,
		Suite:      decl.Suite,
		Attributes: decl.Attributes.Clone(),
		TimeLimit:  decl.TimeLimit,
		Location:   decl.Location,
	}
}

func renderParams(arg interface{}) string {
	return fmt.Sprintf("(%+v)", arg)
}

func locationOrCaller(loc SourceLocation, skip int) SourceLocation {
	if loc.IsDefined() {
		return loc
	}
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return SourceLocation{}
	}
	return SourceLocation{File: file, Line: line}
}
