package framework

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModule() (*Registry, *LocalModule) {
	r := NewRegistry()
	r.Fact(Declaration{Name: "pass", Suite: "A", Attributes: NewAttributes("Speed", "fast")}, func(*T) {})
	r.Fact(Declaration{Name: "fail", Suite: "B"}, func(t *T) { t.Errorf("expected failure") })
	AddTheory(r, Declaration{Name: "theory", Suite: "A"}, rawFunctionProvider, func(t *T, x int) {
		if x > 2 {
			t.Errorf("%d is too big", x)
		}
	})
	return r, NewModule(r, nil)
}

func TestEnumerateVisitsEveryUnitWithoutRunning(t *testing.T) {
	ran := false
	r := NewRegistry()
	r.Fact(Declaration{Name: "a"}, func(*T) { ran = true })
	AddTheory(r, Declaration{Name: "b"}, rawFunctionProvider, func(*T, int) { ran = true })
	m := NewModule(r, nil)

	var first, second []int
	m.EnumerateTestDetails(func(d TestDetails) { first = append(first, d.ID) })
	m.EnumerateTestDetails(func(d TestDetails) { second = append(second, d.ID) })

	assert.False(t, ran)
	assert.Len(t, first, 6)
	assert.Equal(t, first, second)
}

func TestEnumerateSealsRegistry(t *testing.T) {
	r, m := newTestModule()
	m.EnumerateTestDetails(func(TestDetails) {})
	assert.Panics(t, func() { r.Fact(Declaration{Name: "late"}, func(*T) {}) })
}

func TestFilteredTestsRunnerRunsOnlySelectedTests(t *testing.T) {
	_, m := newTestModule()
	rec := newRecordingReporter()

	failures := m.FilteredTestsRunner(RunOptions{MaxConcurrent: 2}, rec,
		Query{Suites: []string{"A"}}.AsFilter())

	assert.Equal(t, 1, failures) // theory instance (3)
	assert.Len(t, rec.started, 6)
	for _, d := range rec.started {
		assert.Equal(t, "A", d.Suite)
	}
	require.Len(t, rec.completions, 1)
	assert.Equal(t, 6, rec.completions[0].total)
}

func TestFilteredTestsRunnerWithIDPredicate(t *testing.T) {
	_, m := newTestModule()
	var selected []int
	m.EnumerateTestDetails(func(d TestDetails) {
		if d.Name == "fail" {
			selected = append(selected, d.ID)
		}
	})

	failures := m.FilteredTestsRunner(RunOptions{}, nil, func(d TestDetails) bool {
		return len(selected) == 1 && d.ID == selected[0]
	})
	assert.Equal(t, 1, failures)
}

func TestRunReturnsSummary(t *testing.T) {
	_, m := newTestModule()
	summary := m.Run(RunOptions{Seed: 7}, nil, nil)
	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, int64(7), summary.Seed)
}

func TestModuleTable(t *testing.T) {
	_, m := newTestModule()
	RegisterModule("module-table-test", m)

	loaded, err := LoadModule("module-table-test")
	require.NoError(t, err)
	assert.Same(t, m, loaded)
	assert.Contains(t, ModuleNames(), "module-table-test")

	assert.Panics(t, func() { RegisterModule("module-table-test", m) })
	assert.Panics(t, func() { RegisterModule("nil-module", nil) })
}

func TestLoadUnknownModule(t *testing.T) {
	_, err := LoadModule("does-not-exist")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "does-not-exist", loadErr.Module)
	assert.True(t, errors.Is(err, ErrModuleNotFound))
	assert.Contains(t, err.Error(), `"does-not-exist"`)
}
