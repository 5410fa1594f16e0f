package template

import "regexp"

// fieldPattern matches {{field}} and {{field:modifier}} references.
// Group 2 is the field name, group 3 the optional ":modifier" suffix.
// Both runs are non-greedy so a match always ends at the first "}}".
var fieldPattern = regexp.MustCompile(`\{\{((.+?)(:.+?)?)\}\}`)

// FieldReference is one occurrence of a field reference inside a string.
type FieldReference struct {
	// Position is the byte offset where the match begins.
	Position int

	// End is the byte offset just past the closing delimiter.
	End int

	// Field is the referenced field name.
	Field string

	// Modifier is the text after the colon, empty if absent.
	Modifier string
}

// FindReferences returns every non-overlapping field reference in text,
// left to right. Returns nil if text contains none.
func FindReferences(text string) []FieldReference {
	matches := fieldPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	refs := make([]FieldReference, 0, len(matches))
	for _, m := range matches {
		ref := FieldReference{
			Position: m[0],
			End:      m[1],
			Field:    text[m[4]:m[5]],
		}
		// Group 3 includes the leading colon; strip it.
		if m[6] >= 0 {
			ref.Modifier = text[m[6]+1 : m[7]]
		}
		refs = append(refs, ref)
	}

	return refs
}

// HasReferences reports whether text contains at least one field reference.
func HasReferences(text string) bool {
	return fieldPattern.MatchString(text)
}
