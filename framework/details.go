package framework

import (
	"fmt"
	"time"
)

// SourceLocation identifies the file and line a test was declared at, or the line
// an assertion failed at.
type SourceLocation struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

func (l SourceLocation) IsDefined() bool {
	return l.File != ""
}

func (l SourceLocation) String() string {
	if !l.IsDefined() {
		return ""
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// TestDetails is the identity and metadata of one runnable unit.
//
// ID is unique for the lifetime of the process and is never reused. Params is empty
// if and only if the unit is a Fact.
type TestDetails struct {
	ID         int            `json:"id"`
	GroupID    int            `json:"groupId"`
	GroupSize  int            `json:"groupSize"`
	Name       string         `json:"name"`
	Params     string         `json:"params,omitempty"`
	Suite      string         `json:"suite,omitempty"`
	Attributes Attributes     `json:"attributes,omitempty"`
	TimeLimit  time.Duration  `json:"timeLimit,omitempty"`
	Location   SourceLocation `json:"location"`
}

// FullName returns the test name followed by its bound parameters, if any.
func (d TestDetails) FullName() string {
	if d.Params == "" {
		return d.Name
	}
	return d.Name + d.Params
}

func (d TestDetails) String() string {
	if d.Suite == "" {
		return d.FullName()
	}
	return d.Suite + " :: " + d.FullName()
}

// IsFact reports whether the unit was declared without a data provider.
func (d TestDetails) IsFact() bool {
	return d.Params == ""
}

// SkipReason returns the value of the Skip attribute, and whether the attribute is
// present at all. Units carrying it are reported as skipped without being run.
func (d TestDetails) SkipReason() (string, bool) {
	values := d.Attributes.Get(SkipAttribute)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
