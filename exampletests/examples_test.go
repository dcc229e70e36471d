package exampletests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/xunit-runner/framework"
)

func TestExamplesModuleIsRegistered(t *testing.T) {
	assert.Contains(t, framework.ModuleNames(), ModuleName)
}

func TestExamplesEnumerate(t *testing.T) {
	m, err := framework.LoadModule(ModuleName)
	require.NoError(t, err)

	suites := make(map[string]int)
	m.EnumerateTestDetails(func(d framework.TestDetails) { suites[d.Suite]++ })

	assert.Equal(t, 3, suites["AssertNil"])
	assert.Equal(t, 6, suites["ToString"])
	assert.Equal(t, 12, suites["Theory"])
}

func TestExamplesAllPass(t *testing.T) {
	m, err := framework.LoadModule(ModuleName)
	require.NoError(t, err)

	summary := m.(*framework.LocalModule).Run(framework.RunOptions{MaxConcurrent: 4}, nil, nil)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 4, summary.Skipped)
	assert.Equal(t, 17, summary.Total)
}

func TestExamplesFilterBySpeed(t *testing.T) {
	m, err := framework.LoadModule(ModuleName)
	require.NoError(t, err)

	q := framework.Query{Exclude: framework.NewAttributes("Speed", "slow")}
	var names []string
	m.EnumerateTestDetails(func(d framework.TestDetails) {
		if q.Matches(d) {
			names = append(names, d.Name)
		}
	})
	assert.NotContains(t, names, "SlowFact")
	assert.Contains(t, names, "UpperAndLowerRoundTrip")
}
