package framework

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestDetails) bool

// Query selects tests by suite and by attributes.
//
// Include entries are combined with OR: a test is included if any of its attributes
// matches any Include entry. Exclude entries are also independent of each other: a
// test is excluded as soon as one Exclude entry matches. An entry with an empty value
// matches any test that has the key at all.
type Query struct {
	Suites  []string
	Include Attributes
	Exclude Attributes
	Names   NamePatterns
}

func (q Query) IsEmpty() bool {
	return len(q.Suites) == 0 && q.Include.IsEmpty() && q.Exclude.IsEmpty() && !q.Names.IsDefined()
}

func (q Query) Matches(details TestDetails) bool {
	return Evaluate(details, q)
}

// AsFilter returns the query as a Filter.
func (q Query) AsFilter() Filter {
	return q.Matches
}

// Evaluate decides whether a test is selected by a query. It has no side effects and
// may be called concurrently.
func Evaluate(details TestDetails, q Query) bool {
	if len(q.Suites) != 0 && !containsString(q.Suites, details.Suite) {
		return false
	}

	if !q.Include.IsEmpty() && !anyIncluded(details.Attributes, q.Include) {
		return false
	}

	if !q.Exclude.IsEmpty() && anyExcluded(details.Attributes, q.Exclude) {
		return false
	}

	if q.Names.IsDefined() && !q.Names.Matches(details.FullName()) {
		return false
	}

	return true
}

func anyIncluded(attributes, include Attributes) bool {
	for _, att := range attributes.entries {
		for _, want := range include.entries {
			if want.Key == att.Key && (want.Value == "" || want.Value == att.Value) {
				return true
			}
		}
	}
	return false
}

func anyExcluded(attributes, exclude Attributes) bool {
	for _, unwanted := range exclude.entries {
		if !attributes.Has(unwanted.Key) {
			continue
		}
		if unwanted.Value == "" || attributes.Contains(unwanted.Key, unwanted.Value) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Describe writes a human-readable explanation of which tests the query will skip.
func (q Query) Describe(w io.Writer) {
	if q.IsEmpty() {
		return
	}
	fmt.Fprintln(w, "Some tests will be skipped based on the filter criteria for this test run:")
	if len(q.Suites) != 0 {
		fmt.Fprintf(w, "  skip any not in suite %s\n", strings.Join(quoteAll(q.Suites), " or "))
	}
	if !q.Include.IsEmpty() {
		fmt.Fprintf(w, "  skip any without attribute %s\n", attributeSpecs(q.Include, " or "))
	}
	if !q.Exclude.IsEmpty() {
		fmt.Fprintf(w, "  skip any with attribute %s\n", attributeSpecs(q.Exclude, " or "))
	}
	if q.Names.MustMatch.IsDefined() {
		fmt.Fprintf(w, "  skip any not matching %s\n", q.Names.MustMatch)
	}
	if q.Names.MustNotMatch.IsDefined() {
		fmt.Fprintf(w, "  skip any matching %s\n", q.Names.MustNotMatch)
	}
	fmt.Fprintln(w)
}

func attributeSpecs(a Attributes, sep string) string {
	ss := make([]string, 0, a.Len())
	for _, e := range a.entries {
		ss = append(ss, `"`+e.String()+`"`)
	}
	return strings.Join(ss, sep)
}

func quoteAll(list []string) []string {
	ret := make([]string, 0, len(list))
	for _, s := range list {
		ret = append(ret, `"`+s+`"`)
	}
	return ret
}

// NamePatterns restricts tests by regexes over their full names.
type NamePatterns struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (n NamePatterns) IsDefined() bool {
	return n.MustMatch.IsDefined() || n.MustNotMatch.IsDefined()
}

func (n NamePatterns) Matches(name string) bool {
	return (!n.MustMatch.IsDefined() || n.MustMatch.AnyMatch(name)) &&
		!n.MustNotMatch.AnyMatch(name)
}

type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Patterns returns the source text of each regex.
func (r RegexList) Patterns() []string {
	ret := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		ret = append(ret, p.String())
	}
	return ret
}

// StringList is a repeatable string flag.
type StringList []string

func (s StringList) String() string {
	return strings.Join(s, ",")
}

func (s *StringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
