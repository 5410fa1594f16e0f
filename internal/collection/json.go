package collection

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/roach88/rtmpl/internal/template"
)

// parseJSON accepts JSON extended with // and /* */ comments and trailing
// commas. Objects are decoded token by token to keep key order.
func parseJSON(data []byte) (*template.Collection, error) {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return template.NewCollection(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(stripped))

	tok, err := dec.Token()
	if err != nil {
		return nil, jsonError(err, dec)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &LoadError{Code: ErrCodeNotMapping, Message: "collection must be a JSON object of key to template text"}
	}

	b := newBuilder()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, jsonError(err, dec)
		}
		key, _ := keyTok.(string)

		valueTok, err := dec.Token()
		if err != nil {
			return nil, jsonError(err, dec)
		}
		text, ok := valueTok.(string)
		if !ok {
			return nil, &LoadError{
				Code:    ErrCodeInvalidValue,
				Message: fmt.Sprintf("value for key %q must be a string (offset %d)", key, dec.InputOffset()),
			}
		}

		if err := b.add(key, text, 0); err != nil {
			return nil, err
		}
	}

	// Consume the closing brace and reject trailing content.
	if _, err := dec.Token(); err != nil {
		return nil, jsonError(err, dec)
	}
	if _, err := dec.Token(); err == nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: "unexpected content after collection object"}
	}

	return b.c, nil
}

func jsonError(err error, dec *json.Decoder) *LoadError {
	return &LoadError{
		Code:    ErrCodeParseFailed,
		Message: fmt.Sprintf("parsing JSON at offset %d: %v", dec.InputOffset(), err),
	}
}
