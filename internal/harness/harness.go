package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/rtmpl/internal/report"
	"github.com/roach88/rtmpl/internal/template"
)

// Harness is the scenario execution engine.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness that logs resolver activity to logger.
// A nil logger discards all output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with logging suppressed.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build a resolver with the scenario's max depth
//  2. Resolve the collection in collection order, or in Order if given
//  3. Build the report
//  4. Check every expectation against the report
//
// Returns an error only if the scenario itself is unusable. Failed
// expectations are recorded on the result.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if scenario.Templates == nil {
		return nil, fmt.Errorf("scenario %q has no collection", scenario.Name)
	}

	maxDepth := template.DefaultMaxDepth
	if scenario.MaxDepth != nil {
		maxDepth = *scenario.MaxDepth
	}

	resolver, err := template.New(
		template.WithMaxDepth(maxDepth),
		template.WithLogger(h.logger.With("scenario", scenario.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	var resolved map[string]*template.ResolvedEntry
	if len(scenario.Order) > 0 {
		resolved, err = resolver.ResolveInOrder(scenario.Templates.Map(), scenario.Order)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve: %w", err)
		}
	} else {
		resolved = resolver.ResolveCollection(scenario.Templates)
	}

	rep, err := report.Build(scenario.Templates, resolved, maxDepth)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Report = rep

	for _, exp := range scenario.Expect {
		for _, msg := range checkExpectation(rep, exp) {
			result.AddError(msg)
		}
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"errors", len(result.Errors))

	return result, nil
}

// ExpectationError describes one mismatched field of an expectation.
type ExpectationError struct {
	Key      string
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Expectation failed: %s.%s\n", e.Key, e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpectation returns one message per mismatched field.
func checkExpectation(rep *report.Report, exp Expectation) []string {
	entry, ok := rep.Lookup(exp.Key)
	if !ok {
		return []string{(&ExpectationError{
			Key:      exp.Key,
			Field:    "key",
			Expected: "present in report",
			Actual:   "missing",
		}).Error()}
	}

	var errs []string
	fail := func(field, expected, actual string) {
		errs = append(errs, (&ExpectationError{
			Key:      exp.Key,
			Field:    field,
			Expected: expected,
			Actual:   actual,
		}).Error())
	}

	if exp.Value != nil && *exp.Value != entry.Value {
		fail("value", fmt.Sprintf("%q", *exp.Value), fmt.Sprintf("%q", entry.Value))
	}
	if exp.Unreplaced != nil && !sameSet(*exp.Unreplaced, entry.Unreplaced) {
		fail("unreplaced", formatSet(*exp.Unreplaced), formatSet(entry.Unreplaced))
	}
	if exp.Impasse != nil && !sameSet(*exp.Impasse, entry.Impasse) {
		fail("impasse", formatSet(*exp.Impasse), formatSet(entry.Impasse))
	}
	if exp.ReachedMaxRecursion != nil && *exp.ReachedMaxRecursion != entry.ReachedMaxRecursion {
		fail("reached_max_recursion",
			fmt.Sprintf("%t", *exp.ReachedMaxRecursion),
			fmt.Sprintf("%t", entry.ReachedMaxRecursion))
	}

	return errs
}

// sameSet compares two name lists ignoring order and duplicates.
func sameSet(a, b []string) bool {
	return slices.Equal(normalize(a), normalize(b))
}

func normalize(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}

func formatSet(names []string) string {
	return "[" + strings.Join(normalize(names), ", ") + "]"
}
