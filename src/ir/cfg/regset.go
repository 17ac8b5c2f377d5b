package cfg

import (
	"fmt"
	"sort"
	"strings"
)

// RegSet is a set of register numbers, used for the liveUse/liveDef/liveIn/liveOut bit-sets of spec
// §3/§4.7. A map-backed set is used in place of a literal bit-vector because virtual register numbers
// are unbounded (spec §4: "regId starting at 16").
type RegSet map[int]struct{}

// NewRegSet returns an empty RegSet.
func NewRegSet() RegSet {
	return make(RegSet)
}

// Add inserts r into the set.
func (s RegSet) Add(r int) {
	s[r] = struct{}{}
}

// Remove deletes r from the set.
func (s RegSet) Remove(r int) {
	delete(s, r)
}

// Has reports whether r is a member.
func (s RegSet) Has(r int) bool {
	_, ok := s[r]
	return ok
}

// Clone returns a shallow copy of the set.
func (s RegSet) Clone() RegSet {
	c := make(RegSet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// Union adds every member of other into s and reports whether s changed.
func (s RegSet) Union(other RegSet) bool {
	changed := false
	for k := range other {
		if !s.Has(k) {
			s.Add(k)
			changed = true
		}
	}
	return changed
}

// Equal reports whether s and other contain exactly the same registers.
func (s RegSet) Equal(other RegSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Slice returns the set's members sorted ascending, for deterministic iteration and printing.
func (s RegSet) Slice() []int {
	res := make([]int, 0, len(s))
	for k := range s {
		res = append(res, k)
	}
	sort.Ints(res)
	return res
}

// String renders the set as "{R0, R1, v16}" for -v dumps.
func (s RegSet) String() string {
	parts := make([]string, 0, len(s))
	for _, r := range s.Slice() {
		parts = append(parts, RegName(r))
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}
