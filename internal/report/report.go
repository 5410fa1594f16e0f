// Package report turns resolver output into an ordered, serializable report.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/rtmpl/internal/canon"
	"github.com/roach88/rtmpl/internal/template"
)

// Entry is the resolved state of one key.
// Name lists are sorted and never nil.
type Entry struct {
	Key                 string   `json:"key"`
	Value               string   `json:"value"`
	Unreplaced          []string `json:"unreplaced"`
	Impasse             []string `json:"impasse"`
	ReachedMaxRecursion bool     `json:"reached_max_recursion"`
}

// Clean reports whether the entry has no unreplaced field, impasse or cutoff.
func (e Entry) Clean() bool {
	return len(e.Unreplaced) == 0 && len(e.Impasse) == 0 && !e.ReachedMaxRecursion
}

// Report is the result of resolving one collection.
// Entries follow the collection's key order.
type Report struct {
	CollectionHash string  `json:"collection_hash"`
	MaxDepth       int     `json:"max_depth"`
	Entries        []Entry `json:"entries"`
}

// Summary counts entries by outcome.
type Summary struct {
	Total      int `json:"total"`
	Clean      int `json:"clean"`
	Unreplaced int `json:"unreplaced"`
	Impasse    int `json:"impasse"`
	MaxDepth   int `json:"reached_max_recursion"`
}

// Build creates a report for collection from the resolver output.
// Returns an error if a key of collection is missing from resolved.
func Build(collection *template.Collection, resolved map[string]*template.ResolvedEntry, maxDepth int) (*Report, error) {
	keys := collection.Keys()
	texts := make([]string, len(keys))
	for i, key := range keys {
		texts[i], _ = collection.Get(key)
	}

	hash, err := canon.CollectionHash(keys, texts)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	r := &Report{
		CollectionHash: hash,
		MaxDepth:       maxDepth,
		Entries:        make([]Entry, 0, len(keys)),
	}
	for _, key := range keys {
		entry, ok := resolved[key]
		if !ok {
			return nil, fmt.Errorf("build report: key %q missing from resolved output", key)
		}
		r.Entries = append(r.Entries, Entry{
			Key:                 key,
			Value:               entry.Value,
			Unreplaced:          entry.UnreplacedFieldNames.Sorted(),
			Impasse:             entry.ImpasseFieldNames.Sorted(),
			ReachedMaxRecursion: entry.ReachedMaxRecursion,
		})
	}

	return r, nil
}

// Lookup returns the entry for key.
func (r *Report) Lookup(key string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter returns a copy of the report holding only the given keys, in
// report order. Returns an error naming the first unknown key.
func (r *Report) Filter(keys []string) (*Report, error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := r.Lookup(k); !ok {
			return nil, fmt.Errorf("unknown key %q", k)
		}
		want[k] = true
	}

	out := &Report{
		CollectionHash: r.CollectionHash,
		MaxDepth:       r.MaxDepth,
		Entries:        make([]Entry, 0, len(keys)),
	}
	for _, e := range r.Entries {
		if want[e.Key] {
			out.Entries = append(out.Entries, e)
		}
	}
	return out, nil
}

// Summary counts the report's entries by outcome. An entry can count
// towards several issue categories.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Entries)}
	for _, e := range r.Entries {
		if e.Clean() {
			s.Clean++
		}
		if len(e.Unreplaced) > 0 {
			s.Unreplaced++
		}
		if len(e.Impasse) > 0 {
			s.Impasse++
		}
		if e.ReachedMaxRecursion {
			s.MaxDepth++
		}
	}
	return s
}

// HasIssues reports whether any entry is not clean.
func (r *Report) HasIssues() bool {
	for _, e := range r.Entries {
		if !e.Clean() {
			return true
		}
	}
	return false
}

// CanonicalEntries converts the entries to canonical JSON values.
func (r *Report) CanonicalEntries() []any {
	entries := make([]any, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = map[string]any{
			"key":                   e.Key,
			"value":                 e.Value,
			"unreplaced":            e.Unreplaced,
			"impasse":               e.Impasse,
			"reached_max_recursion": e.ReachedMaxRecursion,
		}
	}
	return entries
}

// Canonical returns the report as a map suitable for canon.MarshalCanonical.
func (r *Report) Canonical() map[string]any {
	return map[string]any{
		"collection_hash": r.CollectionHash,
		"max_depth":       r.MaxDepth,
		"entries":         r.CanonicalEntries(),
	}
}

// Hash returns the content hash of the report.
func (r *Report) Hash() (string, error) {
	return canon.Hash(canon.DomainReport, r.Canonical())
}

// WriteText renders the report for humans:
//
//	greeting = "hello world"
//	    unreplaced: name
//	    impasse: self
//	    reached max recursion
func (r *Report) WriteText(w io.Writer) error {
	for _, e := range r.Entries {
		if _, err := fmt.Fprintf(w, "%s = %q\n", e.Key, e.Value); err != nil {
			return err
		}
		if len(e.Unreplaced) > 0 {
			fmt.Fprintf(w, "    unreplaced: %s\n", strings.Join(e.Unreplaced, ", "))
		}
		if len(e.Impasse) > 0 {
			fmt.Fprintf(w, "    impasse: %s\n", strings.Join(e.Impasse, ", "))
		}
		if e.ReachedMaxRecursion {
			fmt.Fprintln(w, "    reached max recursion")
		}
	}
	return nil
}

// String formats a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d entries: %d clean, %d unreplaced, %d impasse, %d reached max recursion",
		s.Total, s.Clean, s.Unreplaced, s.Impasse, s.MaxDepth)
}
