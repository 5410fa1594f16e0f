package template

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(opts...)
	require.NoError(t, err)
	return r
}

// orderedCollection builds a collection from alternating key, text pairs.
func orderedCollection(pairs ...string) *Collection {
	c := NewCollection()
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Set(pairs[i], pairs[i+1])
	}
	return c
}

// longChain builds A -> B -> ... with n entries, each referencing the next
// letter. The last entry references a key that does not exist.
func longChain(n int) *Collection {
	c := NewCollection()
	for i := 0; i < n; i++ {
		c.Set(string(rune('A'+i)), fmt.Sprintf("{{%c}}", rune('A'+i+1)))
	}
	return c
}

// =============================================================================
// Configuration
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	r := newTestResolver(t)
	assert.Equal(t, DefaultMaxDepth, r.MaxDepth())
}

func TestNew_RejectsInvalidMaxDepth(t *testing.T) {
	for _, depth := range []int{-1, MaxDepthLimit + 1} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			r, err := New(WithMaxDepth(depth))
			require.Error(t, err)
			assert.Nil(t, r)
			assert.True(t, IsConfigError(err))

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrCodeInvalidMaxDepth, ce.Code)
		})
	}
}

func TestNew_AcceptsBoundaryDepths(t *testing.T) {
	for _, depth := range []int{0, MaxDepthLimit} {
		r := newTestResolver(t, WithMaxDepth(depth))
		assert.Equal(t, depth, r.MaxDepth())
	}
}

// =============================================================================
// Resolution
// =============================================================================

func TestResolve_LiteralsUnchanged(t *testing.T) {
	collection := map[string]string{
		"a": "plain",
		"b": "{single} braces",
		"c": "",
	}

	resolved := newTestResolver(t).Resolve(collection)

	require.Len(t, resolved, 3)
	for key, text := range collection {
		entry := resolved[key]
		assert.Equal(t, text, entry.Value)
		assert.Empty(t, entry.UnreplacedFieldNames)
		assert.Empty(t, entry.ImpasseFieldNames)
		assert.False(t, entry.ReachedMaxRecursion)
		assert.True(t, entry.Clean())
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	collection := map[string]string{"a": "{{b}}", "b": "x"}

	newTestResolver(t).Resolve(collection)

	assert.Equal(t, map[string]string{"a": "{{b}}", "b": "x"}, collection)
}

func TestResolve_Recursively(t *testing.T) {
	testCases := []struct {
		name       string
		collection map[string]string
	}{
		{"plain", map[string]string{"a": "{{c}}", "b": "hello {{a}}", "c": "world"}},
		{"modifiers", map[string]string{"a": "{{c:exp1}}", "b": "hello {{a:exp2}}", "c": "world"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved := newTestResolver(t).Resolve(tc.collection)

			assert.Equal(t, "world", resolved["a"].Value)
			assert.Equal(t, "hello world", resolved["b"].Value)
			assert.Equal(t, "world", resolved["c"].Value)
		})
	}
}

func TestResolve_UnmatchedFieldsUseFieldName(t *testing.T) {
	testCases := []struct {
		name string
		a    string
	}{
		{"plain", "{{x}}"},
		{"modifiers", "{{x:exp1:exp2}}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved := newTestResolver(t).Resolve(map[string]string{
				"a": tc.a,
				"b": "hello {{a}}",
			})

			assert.Equal(t, "x", resolved["a"].Value)
			assert.True(t, resolved["a"].UnreplacedFieldNames.Has("x"))
			assert.Equal(t, "hello x", resolved["b"].Value)
			assert.True(t, resolved["b"].UnreplacedFieldNames.Has("x"), "unreplaced names propagate")
			assert.Empty(t, resolved["b"].ImpasseFieldNames)
		})
	}
}

func TestResolve_LongChain(t *testing.T) {
	collection := map[string]string{
		"a": "{{b}}",
		"b": "{{c}}",
		"c": "{{d}}",
		"d": "{{e}}",
		"e": "{{f}}",
		"f": "{{g}}",
		"g": "{{h}}",
		"h": "yep",
	}

	resolved := newTestResolver(t).Resolve(collection)

	for key, entry := range resolved {
		assert.Equal(t, "yep", entry.Value, "key %s", key)
		assert.False(t, entry.ReachedMaxRecursion, "key %s", key)
	}
}

func TestResolve_ReachesDefaultMaxDepthWithVeryLongChain(t *testing.T) {
	resolved := newTestResolver(t).ResolveCollection(longChain(11))

	require.Len(t, resolved, 11)
	for key, entry := range resolved {
		assert.True(t, entry.ReachedMaxRecursion, "key %s", key)
		assert.Equal(t, "K", entry.Value, "key %s", key)
		assert.True(t, entry.ImpasseFieldNames.Has("K"), "key %s", key)
		assert.Empty(t, entry.UnreplacedFieldNames, "key %s: cutoff happens before the missing key", key)
	}
}

func TestResolve_CutoffWithTerminalLiteral(t *testing.T) {
	c := longChain(11)
	c.Set("K", "end")

	resolved := newTestResolver(t).ResolveCollection(c)

	for key, entry := range resolved {
		assert.True(t, entry.ReachedMaxRecursion, "key %s", key)
		assert.Equal(t, "K", entry.Value, "key %s", key)
	}
}

func TestResolve_ChainWithinMaxDepth(t *testing.T) {
	// A..J is ten entries: J is reached at depth 9, which is allowed.
	c := longChain(10)
	c.Set("J", "end")

	resolved := newTestResolver(t).ResolveCollection(c)

	for key, entry := range resolved {
		assert.False(t, entry.ReachedMaxRecursion, "key %s", key)
		assert.Equal(t, "end", entry.Value, "key %s", key)
		assert.True(t, entry.Clean(), "key %s", key)
	}
}

func TestResolve_MaxDepthZero(t *testing.T) {
	r := newTestResolver(t, WithMaxDepth(0))

	resolved := r.ResolveCollection(orderedCollection(
		"a", "{{b}}",
		"b", "x",
	))

	// b is cut off as a dependency of a and keeps the cutoff value.
	assert.Equal(t, "b", resolved["a"].Value)
	assert.True(t, resolved["a"].ReachedMaxRecursion)
	assert.True(t, resolved["a"].ImpasseFieldNames.Has("b"))
	assert.Equal(t, "b", resolved["b"].Value)
	assert.True(t, resolved["b"].ReachedMaxRecursion)
}

func TestResolve_DirectSelfReference(t *testing.T) {
	for _, text := range []string{"{{itself}}", "{{itself:exp1:exp2}}"} {
		t.Run(text, func(t *testing.T) {
			resolved := newTestResolver(t).Resolve(map[string]string{"itself": text})

			assert.Equal(t, "itself", resolved["itself"].Value)
			assert.True(t, resolved["itself"].ImpasseFieldNames.Has("itself"))
			assert.False(t, resolved["itself"].ReachedMaxRecursion)
		})
	}
}

func TestResolve_IndirectSelfReference(t *testing.T) {
	testCases := []struct {
		name       string
		collection *Collection
	}{
		{"plain", orderedCollection(
			"me", "{{myself}}",
			"myself", "{{i}}",
			"i", "{{me}}",
		)},
		{"modifiers", orderedCollection(
			"me", "{{myself:exp1:exp2}}",
			"myself", "{{i:exp1}}",
			"i", "{{me:exp3}}",
		)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved := newTestResolver(t).ResolveCollection(tc.collection)

			require.Len(t, resolved, 3)
			for key, entry := range resolved {
				assert.True(t, entry.ImpasseFieldNames.Has("myself"), "key %s", key)
				assert.Equal(t, "myself", entry.Value, "key %s", key)
			}
		})
	}
}

func TestResolve_ImpasseNameDependsOnEntryPoint(t *testing.T) {
	// Starting the descent at "i" closes the cycle on "me" instead.
	resolved := newTestResolver(t).ResolveCollection(orderedCollection(
		"i", "{{me}}",
		"me", "{{myself}}",
		"myself", "{{i}}",
	))

	for key, entry := range resolved {
		assert.Equal(t, []string{"me"}, entry.ImpasseFieldNames.Sorted(), "key %s", key)
	}
}

func TestResolve_ReferencedSelfReference(t *testing.T) {
	resolved := newTestResolver(t).Resolve(map[string]string{
		"a": "{{b}}",
		"b": "{{c}}",
		"c": "{{d}}",
		"d": "{{c}}",
	})

	for key, entry := range resolved {
		assert.True(t, entry.ImpasseFieldNames.Has("d"), "key %s", key)
		assert.Equal(t, "d", entry.Value, "key %s", key)
	}
}

func TestResolve_ComplexExpressions(t *testing.T) {
	resolved := newTestResolver(t).Resolve(map[string]string{
		"a": "foo",
		"b": "bar",
		"c": "baz",
		"d": "{{f}}: {{a}} {{b}}",
		"e": "{{c}} ... {{d}}",
		"f": "okay",
	})

	assert.Equal(t, "okay: foo bar", resolved["d"].Value)
	assert.Equal(t, "baz ... okay: foo bar", resolved["e"].Value)
}

func TestResolve_DoubleOccurrence(t *testing.T) {
	testCases := []struct {
		name string
		a    string
	}{
		{"plain", "{{b}} {{b}}"},
		{"modifiers", "{{b:mod1}} {{b:mod2}}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved := newTestResolver(t).Resolve(map[string]string{"a": tc.a, "b": "foo"})

			assert.Equal(t, "foo foo", resolved["a"].Value)
			assert.Empty(t, resolved["a"].ImpasseFieldNames, "distinct positions are distinct occurrences")
		})
	}
}

func TestResolve_ChainedDoubleOccurrence(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
	}{
		{"plain", "{{b}} {{d}}", "{{c}} {{d}}"},
		{"modifiers", "{{b:mod1}} {{d:mod2}}", "{{c:mod1}} {{d:mod3}}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved := newTestResolver(t).Resolve(map[string]string{
				"a": tc.a,
				"b": tc.b,
				"c": "foo",
				"d": "bar",
			})

			assert.Equal(t, "foo bar bar", resolved["a"].Value)
			assert.Equal(t, "foo bar", resolved["b"].Value)
			assert.Empty(t, resolved["a"].ImpasseFieldNames)
		})
	}
}

func TestResolve_PartialFailures(t *testing.T) {
	resolved := newTestResolver(t).Resolve(map[string]string{
		"fail":        "{{fail}}",
		"no key":      "{{no such thing}}",
		"with fail":   "{{fail}} ({{truth}})",
		"with no key": "{{truth}} -- there's {{no key}}",
		"truth":       "it's true",
	})

	assert.Equal(t, "fail", resolved["fail"].Value)
	assert.True(t, resolved["fail"].ImpasseFieldNames.Has("fail"))

	assert.Equal(t, "no such thing", resolved["no key"].Value)
	assert.True(t, resolved["no key"].UnreplacedFieldNames.Has("no such thing"))

	assert.Equal(t, "fail (it's true)", resolved["with fail"].Value)
	assert.True(t, resolved["with fail"].ImpasseFieldNames.Has("fail"))

	assert.Equal(t, "it's true -- there's no such thing", resolved["with no key"].Value)
	assert.True(t, resolved["with no key"].UnreplacedFieldNames.Has("no such thing"))

	assert.True(t, resolved["truth"].Clean())
}

func TestResolve_InsertedReferencesRescannedOnlyOnNextCall(t *testing.T) {
	// A substitution that spells a new reference is not rescanned.
	resolved := newTestResolver(t).ResolveCollection(orderedCollection(
		"a", "{{open}}b}}",
		"open", "{{",
		"b", "bee",
	))

	assert.Equal(t, "{{b}}", resolved["a"].Value)
	assert.True(t, resolved["a"].Clean())
}

func TestResolve_FlagOverwrittenByLaterReference(t *testing.T) {
	r := newTestResolver(t, WithMaxDepth(1))

	resolved := r.ResolveCollection(orderedCollection(
		"a", "{{deep}} {{shallow}}",
		"deep", "{{deeper}}",
		"deeper", "{{deepest}}",
		"deepest", "x",
		"shallow", "s",
	))

	a := resolved["a"]
	assert.Equal(t, "deeper s", a.Value)
	assert.True(t, a.ImpasseFieldNames.Has("deeper"), "impasse is unioned")
	assert.False(t, a.ReachedMaxRecursion, "flag is overwritten by the last reference")

	assert.True(t, resolved["deep"].ReachedMaxRecursion)
	assert.True(t, resolved["deeper"].ReachedMaxRecursion)
}

func TestResolveInOrder_OrderIndependent(t *testing.T) {
	collection := map[string]string{
		"a": "{{c}}",
		"b": "hello {{a}}",
		"c": "world",
		"d": "{{x}} and {{b:loud}}",
	}
	r := newTestResolver(t)

	baseline, err := r.ResolveInOrder(collection, []string{"a", "b", "c", "d"})
	require.NoError(t, err)

	for _, order := range permutations([]string{"a", "b", "c", "d"}) {
		resolved, err := r.ResolveInOrder(collection, order)
		require.NoError(t, err)

		for key, want := range baseline {
			got := resolved[key]
			assert.Equal(t, want.Value, got.Value, "order %v key %s", order, key)
			assert.Equal(t, want.UnreplacedFieldNames.Sorted(), got.UnreplacedFieldNames.Sorted(), "order %v key %s", order, key)
			assert.Equal(t, want.ImpasseFieldNames.Sorted(), got.ImpasseFieldNames.Sorted(), "order %v key %s", order, key)
			assert.Equal(t, want.ReachedMaxRecursion, got.ReachedMaxRecursion, "order %v key %s", order, key)
		}
	}

	assert.Equal(t, "x and hello world", baseline["d"].Value)
}

func TestResolveInOrder_RejectsBadOrder(t *testing.T) {
	collection := map[string]string{"a": "1", "b": "2"}
	r := newTestResolver(t)

	testCases := []struct {
		name  string
		order []string
	}{
		{"too short", []string{"a"}},
		{"unknown key", []string{"a", "z"}},
		{"duplicate key", []string{"a", "a"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolved, err := r.ResolveInOrder(collection, tc.order)
			require.Error(t, err)
			assert.Nil(t, resolved)

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrCodeInvalidOrder, ce.Code)
		})
	}
}

func TestResolver_ReusableAcrossCalls(t *testing.T) {
	r := newTestResolver(t)
	collection := map[string]string{"a": "{{b}}", "b": "x"}

	first := r.Resolve(collection)
	second := r.Resolve(collection)

	assert.Equal(t, "x", first["a"].Value)
	assert.Equal(t, "x", second["a"].Value)
	assert.NotSame(t, first["a"], second["a"])
}

func TestResolver_LogsResolutionEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := newTestResolver(t, WithLogger(logger), WithMaxDepth(1))

	r.ResolveCollection(orderedCollection(
		"self", "{{self}}",
		"missing", "{{nowhere}}",
		"deep", "{{deeper}}",
		"deeper", "{{deepest}}",
		"deepest", "x",
	))

	out := buf.String()
	assert.Contains(t, out, "recursive impasse")
	assert.Contains(t, out, "unresolved field reference")
	assert.Contains(t, out, "max recursion depth reached")
}

func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}

	var out [][]string
	for i := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{items[i]}, p...))
		}
	}
	return out
}
