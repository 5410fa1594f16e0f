package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rtmpl/internal/template"
	"github.com/roach88/rtmpl/internal/testutil"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }

func namesPtr(names ...string) *[]string {
	if names == nil {
		names = []string{}
	}
	return &names
}

func TestRun_Pass(t *testing.T) {
	s := &Scenario{
		Name:        "pronouns",
		Description: "every entry ends up containing myself",
		Templates: testutil.Collection(
			"me", "{{myself}}",
			"myself", "myself",
			"i", "{{me}}",
		),
		Expect: []Expectation{
			{Key: "me", Value: strPtr("myself")},
			{Key: "myself", Value: strPtr("myself")},
			{Key: "i", Value: strPtr("myself"), Impasse: namesPtr(), ReachedMaxRecursion: boolPtr(false)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.NotNil(t, result.Report)
	assert.Len(t, result.Report.Entries, 3)
	assert.Equal(t, template.DefaultMaxDepth, result.Report.MaxDepth)
}

func TestRun_ReportsEveryMismatchedField(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations",
		Templates:   testutil.Collection("a", "{{missing}}"),
		Expect: []Expectation{
			{
				Key:                 "a",
				Value:               strPtr("something else"),
				Unreplaced:          namesPtr(),
				Impasse:             namesPtr("a"),
				ReachedMaxRecursion: boolPtr(true),
			},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Expectation failed: a.value")
	assert.Contains(t, result.Errors[0], `Actual: "missing"`)
	assert.Contains(t, result.Errors[1], "a.unreplaced")
	assert.Contains(t, result.Errors[1], "Actual: [missing]")
	assert.Contains(t, result.Errors[2], "a.impasse")
	assert.Contains(t, result.Errors[3], "a.reached_max_recursion")
}

func TestRun_SetsCompareIgnoringOrder(t *testing.T) {
	s := &Scenario{
		Name:        "sets",
		Description: "unreplaced order does not matter",
		Templates:   testutil.Collection("a", "{{z}} {{y}}"),
		Expect: []Expectation{
			{Key: "a", Unreplaced: namesPtr("z", "y", "z")},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MaxDepthZero(t *testing.T) {
	s := &Scenario{
		Name:        "depth_zero",
		Description: "any reference to a sibling is cut off",
		MaxDepth:    intPtr(0),
		Templates:   testutil.Collection("a", "x{{b}}", "b", "y"),
		Expect: []Expectation{
			{Key: "a", Value: strPtr("xb"), Impasse: namesPtr("b"), ReachedMaxRecursion: boolPtr(true)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 0, result.Report.MaxDepth)
}

func TestRun_Order(t *testing.T) {
	s := &Scenario{
		Name:        "order",
		Description: "explicit order",
		MaxDepth:    intPtr(1),
		Templates:   testutil.Collection("a", "{{b}}", "b", "{{c}}", "c", "end"),
		Order:       []string{"c", "b", "a"},
		Expect: []Expectation{
			{Key: "a", Value: strPtr("end"), ReachedMaxRecursion: boolPtr(false)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// Report order follows the collection, not the resolution order.
	assert.Equal(t, "a", result.Report.Entries[0].Key)
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(&Scenario{Name: "empty"})
	assert.Error(t, err)

	_, err = Run(&Scenario{Name: "deep", Templates: testutil.Collection("a", "b"), MaxDepth: intPtr(-1)})
	assert.Error(t, err)

	_, err = Run(&Scenario{Name: "order", Templates: testutil.Collection("a", "b"), Order: []string{"z"}})
	assert.Error(t, err)
}

func TestHarness_LogsThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := &Scenario{
		Name:        "logged",
		Description: "resolver debug output reaches the harness logger",
		Templates:   testutil.Collection("a", "{{nope}}"),
		Expect:      []Expectation{{Key: "a", Unreplaced: namesPtr("nope")}},
	}

	result, err := New(logger).Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Contains(t, buf.String(), "unresolved field reference")
	assert.Contains(t, buf.String(), "scenario=logged")
	assert.Contains(t, buf.String(), "scenario finished")
}

func TestScenarioFiles_Pass(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_RingReachesImpasse(t *testing.T) {
	s := &Scenario{
		Name:        "ring",
		Description: "a three-entry cycle stops where it re-enters the entry point",
		Templates:   testutil.Ring(3),
		Expect: []Expectation{
			{Key: "k00", Value: strPtr("k01"), Impasse: namesPtr("k01"), ReachedMaxRecursion: boolPtr(false)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ChainAtMaxDepth(t *testing.T) {
	// Resolving k00 of a chain of n entries recurses n-1 levels.
	s := &Scenario{
		Name:        "chain",
		Description: "a chain exactly max_depth deep resolves cleanly",
		MaxDepth:    intPtr(4),
		Templates:   testutil.Chain(5, "end"),
		Expect: []Expectation{
			{Key: testutil.Key(0), Value: strPtr("end"), Impasse: namesPtr(), ReachedMaxRecursion: boolPtr(false)},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	s.Templates = testutil.Chain(6, "end")
	s.Expect = []Expectation{
		{Key: testutil.Key(0), Value: strPtr(testutil.Key(5)), ReachedMaxRecursion: boolPtr(true)},
	}
	result, err = Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}
