package framework

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SkipAttribute is the attribute key that marks a test as declared but not to be run.
const SkipAttribute = "Skip"

// Attribute is a single key/value tag. An empty Value in a filter means "any value".
type Attribute struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

func (a Attribute) String() string {
	if a.Value == "" {
		return a.Key
	}
	return a.Key + "=" + a.Value
}

// ParseAttribute parses a "key" or "key=value" specifier.
func ParseAttribute(spec string) (Attribute, error) {
	key, value, _ := strings.Cut(spec, "=")
	key = strings.TrimSpace(key)
	if key == "" {
		return Attribute{}, fmt.Errorf("invalid attribute %q: key is required", spec)
	}
	return Attribute{Key: key, Value: strings.TrimSpace(value)}, nil
}

// Attributes is a multimap of string keys to string values. Duplicate keys are
// allowed, and insertion order is preserved.
type Attributes struct {
	entries []Attribute
}

// NewAttributes builds a collection from alternating keys and values.
func NewAttributes(keysAndValues ...string) Attributes {
	var a Attributes
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		a.Add(keysAndValues[i], keysAndValues[i+1])
	}
	return a
}

func (a *Attributes) Add(key, value string) {
	a.entries = append(a.entries, Attribute{Key: key, Value: value})
}

func (a Attributes) Len() int {
	return len(a.entries)
}

func (a Attributes) IsEmpty() bool {
	return len(a.entries) == 0
}

// Get returns every value stored under key, in insertion order.
func (a Attributes) Get(key string) []string {
	var ret []string
	for _, e := range a.entries {
		if e.Key == key {
			ret = append(ret, e.Value)
		}
	}
	return ret
}

func (a Attributes) Has(key string) bool {
	for _, e := range a.entries {
		if e.Key == key {
			return true
		}
	}
	return false
}

func (a Attributes) Contains(key, value string) bool {
	for _, e := range a.entries {
		if e.Key == key && e.Value == value {
			return true
		}
	}
	return false
}

func (a Attributes) Each(fn func(key, value string)) {
	for _, e := range a.entries {
		fn(e.Key, e.Value)
	}
}

// Entries returns a copy of the underlying pairs.
func (a Attributes) Entries() []Attribute {
	return append([]Attribute(nil), a.entries...)
}

// Clone returns a collection that shares no storage with a.
func (a Attributes) Clone() Attributes {
	return Attributes{entries: a.Entries()}
}

func (a Attributes) String() string {
	ss := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		ss = append(ss, "["+e.Key+" = "+e.Value+"]")
	}
	return strings.Join(ss, " ")
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	if a.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.entries)
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	var entries []Attribute
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		entries = nil
	}
	a.entries = entries
	return nil
}

// Set lets an Attributes value act as a repeatable command-line flag taking
// "key[=value]" specifiers.
func (a *Attributes) Set(value string) error {
	attr, err := ParseAttribute(value)
	if err != nil {
		return err
	}
	a.entries = append(a.entries, attr)
	return nil
}
