package collection

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/rtmpl/internal/template"
)

// parseCUE evaluates data as a CUE struct whose regular fields are the
// collection entries. Every field must evaluate to a concrete string, so
// CUE's own interpolation and unification may be used to build texts.
func parseCUE(data []byte) (*template.Collection, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data)

	// Validate reports conflicts anywhere in the value but accepts
	// incomplete fields; those are caught per entry below.
	if err := value.Validate(); err != nil {
		return nil, &LoadError{
			Code:    ErrCodeParseFailed,
			Message: fmt.Sprintf("building CUE value: %v", err),
			Line:    value.Pos().Line(),
		}
	}

	if value.IncompleteKind() != cue.StructKind {
		return nil, &LoadError{Code: ErrCodeNotMapping, Message: "collection must be a CUE struct of key to template text"}
	}

	iter, err := value.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating fields: %v", err)}
	}

	b := newBuilder()
	for iter.Next() {
		key := iter.Label()
		field := iter.Value()

		text, err := field.String()
		if err != nil {
			return nil, &LoadError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("value for key %q must be a concrete string: %v", key, err),
				Line:    field.Pos().Line(),
			}
		}

		if err := b.add(key, text, field.Pos().Line()); err != nil {
			return nil, err
		}
	}

	return b.c, nil
}
