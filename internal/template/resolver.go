package template

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	// DefaultMaxDepth is the nesting depth at which resolution is cut off.
	DefaultMaxDepth = 9

	// MaxDepthLimit is the largest accepted max depth. Each level is one
	// stack frame, so the bound also caps stack usage.
	MaxDepthLimit = 256
)

// Resolver resolves template collections.
//
// A Resolver holds only its configuration and may serve any number of
// sequential Resolve calls. Each call owns its own output map.
type Resolver struct {
	maxDepth int
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxDepth sets the maximum recursion depth. Validated by New.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// WithLogger sets the logger used for Debug level resolution events.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		r.logger = logger
	}
}

// New creates a Resolver. Returns a ConfigError if the max depth is
// negative or greater than MaxDepthLimit.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.maxDepth < 0 || r.maxDepth > MaxDepthLimit {
		return nil, newMaxDepthError(r.maxDepth)
	}

	return r, nil
}

// MaxDepth returns the configured maximum recursion depth.
func (r *Resolver) MaxDepth() int {
	return r.maxDepth
}

// Resolve resolves every entry of collection, visiting top-level keys in
// ascending order. The input map is not modified.
func (r *Resolver) Resolve(collection map[string]string) map[string]*ResolvedEntry {
	return r.ResolveCollection(FromMap(collection))
}

// ResolveCollection resolves every entry of collection, visiting top-level
// keys in insertion order.
func (r *Resolver) ResolveCollection(collection *Collection) map[string]*ResolvedEntry {
	entries := make(map[string]*ResolvedEntry, collection.Len())
	for _, key := range collection.keys {
		entries[key] = NewResolvedEntry(collection.values[key])
	}

	for _, key := range collection.keys {
		chain := NewOccurrenceChain()
		entries[key] = r.resolve(key, entries[key], entries, chain, 0)
	}

	return entries
}

// ResolveInOrder resolves collection visiting top-level keys in the given
// order. Returns a ConfigError unless order lists every key exactly once.
func (r *Resolver) ResolveInOrder(collection map[string]string, order []string) (map[string]*ResolvedEntry, error) {
	if len(order) != len(collection) {
		return nil, &ConfigError{
			Code:    ErrCodeInvalidOrder,
			Message: fmt.Sprintf("order has %d keys, collection has %d", len(order), len(collection)),
		}
	}

	c := NewCollection()
	for _, key := range order {
		text, ok := collection[key]
		if !ok {
			return nil, &ConfigError{
				Code:    ErrCodeInvalidOrder,
				Message: fmt.Sprintf("order names unknown key %q", key),
			}
		}
		if _, dup := c.Get(key); dup {
			return nil, &ConfigError{
				Code:    ErrCodeInvalidOrder,
				Message: fmt.Sprintf("order names key %q twice", key),
			}
		}
		c.Set(key, text)
	}

	return r.ResolveCollection(c), nil
}

// resolve performs one substitution pass over entry, recursing into every
// referenced sibling. fieldName is the key entry belongs to.
//
// References are found against the value as it stood when the call began.
// Text inserted by a substitution is not rescanned within the same pass.
func (r *Resolver) resolve(
	fieldName string,
	entry *ResolvedEntry,
	entries map[string]*ResolvedEntry,
	chain *OccurrenceChain,
	depth int,
) *ResolvedEntry {
	// Depth guard: terminal, no further scanning.
	if depth > r.maxDepth {
		r.logger.Debug("max recursion depth reached",
			"field", fieldName,
			"depth", depth,
			"max_depth", r.maxDepth,
		)
		entry.Value = fieldName
		entry.ReachedMaxRecursion = true
		entry.ImpasseFieldNames.Add(fieldName)
		return entry
	}

	source := entry.Value
	refs := FindReferences(source)
	if len(refs) == 0 {
		return entry
	}

	var b strings.Builder
	b.Grow(len(source))
	last := 0

	for _, ref := range refs {
		b.WriteString(source[last:ref.Position])
		last = ref.End

		occ := Occurrence{
			Position:    ref.Position,
			Field:       ref.Field,
			WithinField: fieldName,
		}

		if !chain.Add(occ) {
			r.logger.Debug("recursive impasse",
				"field", ref.Field,
				"within", fieldName,
				"position", ref.Position,
			)
			entry.ImpasseFieldNames.Add(ref.Field)
			b.WriteString(ref.Field)
			continue
		}

		replacement, ok := entries[ref.Field]
		if !ok {
			r.logger.Debug("unresolved field reference",
				"field", ref.Field,
				"within", fieldName,
			)
			entry.UnreplacedFieldNames.Add(ref.Field)
			b.WriteString(ref.Field)
			continue
		}

		replacement = r.resolve(ref.Field, replacement, entries, chain, depth+1)

		// Overwritten, not OR'ed: the last substitution in the pass wins.
		entry.ReachedMaxRecursion = replacement.ReachedMaxRecursion
		entry.ImpasseFieldNames.AddAll(replacement.ImpasseFieldNames)
		entry.UnreplacedFieldNames.AddAll(replacement.UnreplacedFieldNames)

		b.WriteString(replacement.Value)
	}

	b.WriteString(source[last:])
	entry.Value = b.String()

	return entry
}
