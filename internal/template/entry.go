package template

import "slices"

// FieldSet is a set of field names.
type FieldSet map[string]struct{}

// Add inserts name.
func (s FieldSet) Add(name string) {
	s[name] = struct{}{}
}

// AddAll inserts every name of other. Safe when other is s itself.
func (s FieldSet) AddAll(other FieldSet) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Has reports whether name is in the set.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names.
func (s FieldSet) Len() int {
	return len(s)
}

// Sorted returns the names in ascending order.
// Always returns a non-nil slice.
func (s FieldSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolvedEntry is the mutable resolution result for one key.
//
// Value starts as the raw template text and is rewritten in place as
// substitutions occur. The two sets only grow. ReachedMaxRecursion is
// overwritten by each substitution performed on the entry, not OR'ed:
// a later reference that did not hit the cutoff clears an earlier true.
type ResolvedEntry struct {
	// Value is the resolved (or best-effort) text.
	Value string

	// UnreplacedFieldNames are referenced names with no key in the collection.
	UnreplacedFieldNames FieldSet

	// ImpasseFieldNames are names abandoned because of a cycle or depth cutoff.
	ImpasseFieldNames FieldSet

	// ReachedMaxRecursion reports whether the depth cutoff was observed.
	ReachedMaxRecursion bool
}

// NewResolvedEntry wraps raw template text with empty metadata.
func NewResolvedEntry(value string) *ResolvedEntry {
	return &ResolvedEntry{
		Value:                value,
		UnreplacedFieldNames: make(FieldSet),
		ImpasseFieldNames:    make(FieldSet),
	}
}

// Clean reports whether the entry resolved without any unreplaced field,
// impasse or depth cutoff.
func (e *ResolvedEntry) Clean() bool {
	return len(e.UnreplacedFieldNames) == 0 &&
		len(e.ImpasseFieldNames) == 0 &&
		!e.ReachedMaxRecursion
}
