package template

// Occurrence identifies one field reference instance along a resolution path.
//
// Two occurrences are equal iff position, field and containing field all
// match. The modifier is deliberately not part of the identity: the same
// field referenced with different modifiers is the same occurrence for
// cycle purposes, while the same field at a different offset is not.
//
// Occurrence is comparable and used directly as a map key.
type Occurrence struct {
	Position    int
	Field       string
	WithinField string
}

// OccurrenceChain is the set of occurrences visited during one top-level
// descent. It is created per top-level key and shared by every recursive
// call spawned from it.
//
// Not safe for concurrent use. Resolution is single threaded.
type OccurrenceChain struct {
	seen map[Occurrence]struct{}
}

// NewOccurrenceChain creates an empty chain.
func NewOccurrenceChain() *OccurrenceChain {
	return &OccurrenceChain{seen: make(map[Occurrence]struct{})}
}

// Add records occ and reports whether it was new.
// A false return means the occurrence was already on the chain (a cycle).
func (c *OccurrenceChain) Add(occ Occurrence) bool {
	if _, ok := c.seen[occ]; ok {
		return false
	}
	c.seen[occ] = struct{}{}
	return true
}

// Contains reports whether occ has been visited.
func (c *OccurrenceChain) Contains(occ Occurrence) bool {
	_, ok := c.seen[occ]
	return ok
}

// Len returns the number of visited occurrences.
func (c *OccurrenceChain) Len() int {
	return len(c.seen)
}
