// Package exampletests is a test module linked into the runner. It registers itself
// under the name "examples" and demonstrates Facts, Theories and attributes.
package exampletests

import (
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchdarkly/xunit-runner/framework"
)

const ModuleName = "examples"

var registry = framework.NewRegistry()

func init() {
	registerAssertNilTests()
	registerToStringTests()
	registerTheoryTests()
	framework.RegisterModule(ModuleName, framework.NewModule(registry, nil))
}

func registerAssertNilTests() {
	const suite = "AssertNil"

	registry.Fact(framework.Declaration{Name: "NilForNilPointer", Suite: suite}, func(t *framework.T) {
		var p *int
		assert.Nil(t, p)
	})

	registry.Fact(framework.Declaration{Name: "NilForEmptyInterface", Suite: suite}, func(t *framework.T) {
		var err error
		require.NoError(t, err)
		assert.Nil(t, err)
	})

	registry.Fact(framework.Declaration{Name: "NotNilForAddress", Suite: suite}, func(t *framework.T) {
		x := 1
		assert.NotNil(t, &x)
	})
}

func registerToStringTests() {
	const suite = "ToString"

	framework.AddTheory(registry,
		framework.Declaration{Name: "FormattingDoesNotModifyArguments", Suite: suite},
		func() []string { return []string{"ABCD", "", "xunit"} },
		func(t *framework.T, s string) {
			before := s
			_ = fmt.Sprintf("%q", s)
			assert.Equal(t, before, s)
		},
	)

	framework.AddTheory(registry,
		framework.Declaration{Name: "UpperAndLowerRoundTrip", Suite: suite, Attributes: framework.NewAttributes("Speed", "fast")},
		func() []string { return []string{"abc", "mixed", "gophers"} },
		func(t *framework.T, s string) {
			t.Debug("checking %q", s)
			assert.Equal(t, s, strings.ToLower(strings.ToUpper(s)))
		},
	)
}

type sumCase struct {
	A, B, Sum int
}

func registerTheoryTests() {
	const suite = "Theory"

	framework.AddTheory(registry,
		framework.Declaration{Name: "ZeroOrOne", Suite: suite},
		func() []int { return []int{0, 1, 0, 1} },
		func(t *framework.T, x int) {
			assert.True(t, x == 0 || x == 1)
		},
	)

	framework.AddTheory(registry,
		framework.Declaration{Name: "Sums", Suite: suite, TimeLimit: time.Second},
		func() []sumCase { return []sumCase{{1, 2, 3}, {0, 0, 0}, {-1, 1, 0}} },
		func(t *framework.T, c sumCase) {
			assert.Equal(t, c.Sum, c.A+c.B)
		},
	)

	framework.AddTheory(registry,
		framework.Declaration{
			Name:       "TheoriesCanBeSkipped",
			Suite:      suite,
			Attributes: framework.NewAttributes(framework.SkipAttribute, "demonstrates skipping"),
		},
		func() []int { return []int{0, 1, 2, 3} },
		func(t *framework.T, x int) {
			t.Errorf("skipped theory was run with %d", x)
		},
	)

	registry.Fact(framework.Declaration{Name: "SlowFact", Suite: suite, Attributes: framework.NewAttributes("Speed", "slow")},
		func(t *framework.T) {
			time.Sleep(20 * time.Millisecond)
		})
}
