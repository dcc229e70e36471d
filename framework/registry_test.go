package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFunctionProvider() []int {
	return []int{0, 1, 2, 3, 0}
}

func TestFactYieldsOneUnitWithGroupSizeOne(t *testing.T) {
	r := NewRegistry()
	r.Fact(Declaration{Name: "fact", Suite: "suite"}, func(*T) {})

	units := r.Units()
	require.Len(t, units, 1)
	d := units[0].Details
	assert.Equal(t, 1, d.GroupSize)
	assert.Equal(t, "", d.Params)
	assert.True(t, d.IsFact())
	assert.Equal(t, "fact", d.Name)
	assert.Equal(t, "suite", d.Suite)
	assert.NotZero(t, d.ID)
	assert.NotZero(t, d.GroupID)
}

func TestTheoryYieldsOneSiblingPerDataElement(t *testing.T) {
	r := NewRegistry()
	AddTheory(r, Declaration{Name: "theory"}, rawFunctionProvider, func(*T, int) {})

	units := r.Units()
	require.Len(t, units, 5)
	groupID := units[0].Details.GroupID
	ids := make(map[int]bool)
	for _, u := range units {
		assert.Equal(t, groupID, u.Details.GroupID)
		assert.Equal(t, 5, u.Details.GroupSize)
		assert.NotEmpty(t, u.Details.Params)
		assert.False(t, ids[u.Details.ID], "duplicate ID %d", u.Details.ID)
		ids[u.Details.ID] = true
	}
	assert.Equal(t, "(0)", units[0].Details.Params)
	assert.Equal(t, "(3)", units[3].Details.Params)

	require.Len(t, r.Theories(), 1)
	assert.Len(t, r.Theories()[0].Instances(), 5)
}

func TestTheoryWithEmptyProviderYieldsNoUnits(t *testing.T) {
	r := NewRegistry()
	AddTheory(r, Declaration{Name: "empty"}, func() []int { return nil }, func(*T, int) {})

	assert.Len(t, r.Units(), 0)
	require.Len(t, r.Theories(), 1)
	assert.Equal(t, 0, r.Theories()[0].Details().GroupSize)
}

func TestTheoryInstancesGetAllDataPassedToThem(t *testing.T) {
	r := NewRegistry()
	var received []int
	AddTheory(r, Declaration{Name: "data"}, rawFunctionProvider, func(_ *T, x int) {
		received = append(received, x)
	})

	for _, u := range r.Units() {
		u.Body(newT(u.Details, NullReporter(), nil))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 0}, received)
}

func TestTheoryBindsStructTuplesByValue(t *testing.T) {
	type pair struct {
		N int
		S string
	}
	data := []pair{{0, "a"}, {1, "b"}}
	r := NewRegistry()
	var received []pair
	AddTheory(r, Declaration{Name: "pairs"}, func() []pair { return data }, func(_ *T, p pair) {
		received = append(received, p)
	})
	data[0].S = "changed"

	units := r.Units()
	assert.Equal(t, "({N:0 S:a})", units[0].Details.Params)
	units[0].Body(newT(units[0].Details, NullReporter(), nil))
	assert.Equal(t, []pair{{0, "a"}}, received)
}

func TestIDsIncreaseAcrossRegistries(t *testing.T) {
	r1, r2 := NewRegistry(), NewRegistry()
	r1.Fact(Declaration{Name: "a"}, func(*T) {})
	r2.Fact(Declaration{Name: "b"}, func(*T) {})
	r1.Fact(Declaration{Name: "c"}, func(*T) {})

	a, c := r1.Units()[0].Details, r1.Units()[1].Details
	b := r2.Units()[0].Details
	assert.Less(t, a.ID, b.ID)
	assert.Less(t, b.ID, c.ID)
	assert.NotEqual(t, a.GroupID, c.GroupID)
}

func TestFactsAreListedBeforeTheoryInstances(t *testing.T) {
	r := NewRegistry()
	AddTheory(r, Declaration{Name: "theory"}, func() []int { return []int{1} }, func(*T, int) {})
	r.Fact(Declaration{Name: "fact"}, func(*T) {})

	units := r.Units()
	require.Len(t, units, 2)
	assert.Equal(t, "fact", units[0].Details.Name)
	assert.Equal(t, "theory", units[1].Details.Name)
	assert.Len(t, r.Facts(), 1)
}

func TestRegistrationRecordsCallerLocation(t *testing.T) {
	r := NewRegistry()
	r.Fact(Declaration{Name: "here"}, func(*T) {})

	loc := r.Units()[0].Details.Location
	assert.Contains(t, loc.File, "registry_test.go")
	assert.NotZero(t, loc.Line)
}

func TestDeclaredLocationIsKept(t *testing.T) {
	r := NewRegistry()
	r.Fact(Declaration{Name: "x", Location: SourceLocation{File: "tests.cpp", Line: 42}}, func(*T) {})
	assert.Equal(t, "tests.cpp:42", r.Units()[0].Details.Location.String())
}

func TestAttributesAreCopiedAtRegistration(t *testing.T) {
	attrs := NewAttributes("Cats", "Meow")
	r := NewRegistry()
	r.Fact(Declaration{Name: "x", Attributes: attrs}, func(*T) {})
	attrs.Add("Dogs", "Woof")

	d := r.Units()[0].Details
	assert.Equal(t, []string{"Meow"}, d.Attributes.Get("Cats"))
	assert.False(t, d.Attributes.Has("Dogs"))
}

func TestRegisteringAfterSealPanics(t *testing.T) {
	r := NewRegistry()
	r.Seal()
	assert.Panics(t, func() { r.Fact(Declaration{Name: "late"}, func(*T) {}) })
	assert.Panics(t, func() {
		AddTheory(r, Declaration{Name: "late"}, rawFunctionProvider, func(*T, int) {})
	})
}

func TestNilBodyOrProviderPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.Fact(Declaration{Name: "nil"}, nil) })
	assert.Panics(t, func() { AddTheory[int](r, Declaration{Name: "nil"}, nil, func(*T, int) {}) })
	assert.Panics(t, func() { AddTheory[int](r, Declaration{Name: "nil"}, rawFunctionProvider, nil) })
}
