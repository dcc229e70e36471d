package framework

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailsWith(suite string, keysAndValues ...string) TestDetails {
	return TestDetails{Name: "test", Suite: suite, Attributes: NewAttributes(keysAndValues...)}
}

func attrs(t *testing.T, specs ...string) Attributes {
	var a Attributes
	for _, s := range specs {
		require.NoError(t, a.Set(s))
	}
	return a
}

func TestEmptyQueryAcceptsEverything(t *testing.T) {
	assert.True(t, Evaluate(detailsWith("any", "Skip", "yes"), Query{}))
	assert.True(t, Query{}.IsEmpty())
}

func TestSuiteSelection(t *testing.T) {
	q := Query{Suites: []string{"Theory", "Assert"}}
	assert.True(t, Evaluate(detailsWith("Theory"), q))
	assert.True(t, Evaluate(detailsWith("Assert"), q))
	assert.False(t, Evaluate(detailsWith("ToString"), q))
	assert.False(t, Evaluate(detailsWith(""), q))
}

func TestInclusiveAttributesUseOrSemantics(t *testing.T) {
	d := detailsWith("", "A", "1")

	assert.True(t, Evaluate(d, Query{Include: attrs(t, "A=1", "B=2")}))
	assert.False(t, Evaluate(d, Query{Include: attrs(t, "B=2")}))
	assert.False(t, Evaluate(d, Query{Include: attrs(t, "A=2")}))
}

func TestInclusiveWildcardMatchesKeyPresence(t *testing.T) {
	assert.True(t, Evaluate(detailsWith("", "A", "anything"), Query{Include: attrs(t, "A")}))
	assert.False(t, Evaluate(detailsWith("", "B", "anything"), Query{Include: attrs(t, "A")}))
	assert.False(t, Evaluate(detailsWith(""), Query{Include: attrs(t, "A")}))
}

func TestInclusiveMatchesAnyValueOfDuplicateKey(t *testing.T) {
	d := detailsWith("", "Category", "slow", "Category", "network")
	assert.True(t, Evaluate(d, Query{Include: attrs(t, "Category=network")}))
}

func TestExclusiveWildcardExcludesRegardlessOfOtherEntries(t *testing.T) {
	d := detailsWith("", "Skip", "present")

	assert.False(t, Evaluate(d, Query{Exclude: attrs(t, "Skip")}))
	assert.False(t, Evaluate(d, Query{Exclude: attrs(t, "Other=1", "Skip", "Another")}))
}

func TestExclusiveValueMustMatch(t *testing.T) {
	d := detailsWith("", "Category", "slow", "Category", "network")

	assert.False(t, Evaluate(d, Query{Exclude: attrs(t, "Category=network")}))
	assert.True(t, Evaluate(d, Query{Exclude: attrs(t, "Category=fast")}))
	assert.True(t, Evaluate(d, Query{Exclude: attrs(t, "Owner")}))
}

func TestExclusiveEntriesAreNotCombinedConjunctively(t *testing.T) {
	d := detailsWith("", "A", "1")
	assert.False(t, Evaluate(d, Query{Exclude: attrs(t, "A=1", "B=2")}))
}

func TestExclusionWinsOverInclusion(t *testing.T) {
	d := detailsWith("", "A", "1", "B", "2")
	assert.False(t, Evaluate(d, Query{Include: attrs(t, "A"), Exclude: attrs(t, "B=2")}))
}

func TestEvaluateIsIdempotent(t *testing.T) {
	d := detailsWith("s", "A", "1", "Skip", "")
	q := Query{Suites: []string{"s"}, Include: attrs(t, "A"), Exclude: attrs(t, "C")}
	first := Evaluate(d, q)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Evaluate(d, q))
	}
	assert.Equal(t, first, q.Matches(d))
	assert.Equal(t, first, q.AsFilter()(d))
}

func TestNamePatterns(t *testing.T) {
	var q Query
	require.NoError(t, q.Names.MustMatch.Set("^Theor"))
	require.NoError(t, q.Names.MustNotMatch.Set(`\(3\)$`))

	assert.True(t, Evaluate(TestDetails{Name: "TheoryA", Params: "(1)"}, q))
	assert.False(t, Evaluate(TestDetails{Name: "TheoryA", Params: "(3)"}, q))
	assert.False(t, Evaluate(TestDetails{Name: "Fact"}, q))
}

func TestRegexListRejectsInvalidPattern(t *testing.T) {
	var r RegexList
	assert.Error(t, r.Set("("))
	assert.False(t, r.IsDefined())
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	Query{}.Describe(&buf)
	assert.Empty(t, buf.String())

	q := Query{Suites: []string{"Theory"}, Include: attrs(t, "A=1"), Exclude: attrs(t, "Skip")}
	q.Describe(&buf)
	out := buf.String()
	assert.Contains(t, out, `skip any not in suite "Theory"`)
	assert.Contains(t, out, `skip any without attribute "A=1"`)
	assert.Contains(t, out, `skip any with attribute "Skip"`)
}

func TestParseAttribute(t *testing.T) {
	a, err := ParseAttribute("Category=slow")
	require.NoError(t, err)
	assert.Equal(t, Attribute{Key: "Category", Value: "slow"}, a)

	a, err = ParseAttribute("Skip")
	require.NoError(t, err)
	assert.Equal(t, Attribute{Key: "Skip"}, a)
	assert.Equal(t, "Skip", a.String())

	_, err = ParseAttribute("=value")
	assert.Error(t, err)
}

func TestAttributesJSONRoundTripPreservesDuplicates(t *testing.T) {
	a := NewAttributes("K", "1", "K", "2")
	data, err := json.Marshal(a)
	require.NoError(t, err)

	var b Attributes
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Equal(t, []string{"1", "2"}, b.Get("K"))
}

func TestAttributesString(t *testing.T) {
	assert.Equal(t, "[Cats = Meow] [Skip = ]", NewAttributes("Cats", "Meow", "Skip", "").String())
}
