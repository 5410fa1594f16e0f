// Package template resolves collections of template strings whose entries
// reference each other by name.
//
// A field reference is written {{name}} or {{name:modifier}}. The modifier
// is captured but never interpreted. Resolution substitutes every reference
// with the resolved value of the sibling entry of that name, recursively.
//
// FAILURE MODES:
//
// Nothing in this package returns an error for data-level problems. Each
// failure is recorded on the ResolvedEntry instead:
//   - Missing key: the field name is substituted and recorded as unreplaced
//   - Cycle: the field name is substituted and recorded as an impasse
//   - Depth cutoff: the entry value becomes the field name, the
//     ReachedMaxRecursion flag is set, and the name is recorded as an impasse
//
// CYCLE DETECTION:
//
// Cycles are detected with an OccurrenceChain, a set of Occurrence keys
// (position, field, containing field) visited during one top-level descent.
// A fresh chain is created per top-level key and discarded afterwards, so
// detection is path scoped rather than global.
//
// Entries are mutated in place. A key that was already resolved as the
// dependency of an earlier key contains no further references and is
// returned unchanged when visited again.
package template
