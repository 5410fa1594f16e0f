// Package collection loads template collections from YAML, JSON, JSONC
// and CUE files.
//
// Every loader preserves declaration order, because the order of keys is
// the order in which top-level entries are resolved. All values must be
// scalars; keys must be unique.
package collection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/rtmpl/internal/template"
)

// Format identifies a collection file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// Error code constants.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUnsupported  = "E002" // Unsupported file format
	ErrCodeReadFailed   = "E003" // File could not be read
	ErrCodeParseFailed  = "E004" // Syntax error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeInvalidValue = "E006" // Non-scalar or non-string value
	ErrCodeDuplicateKey = "E007" // Key declared twice
	ErrCodeNotMapping   = "E008" // Top level is not a mapping
)

// LoadError describes why a collection could not be loaded.
type LoadError struct {
	Code    string
	Message string
	File    string // empty when parsing raw bytes
	Line    int    // 1-based, 0 if unknown
}

func (e *LoadError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// ErrorCode returns the LoadError code of err, or ErrCodeGeneric.
func ErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported collection format %q (want .yaml, .yml, .json, .jsonc or .cue)", filepath.Ext(path)),
			File:    path,
		}
	}
}

// Load reads the collection file at path.
func Load(path string) (*template.Collection, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "collection file not found", File: path}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error(), File: path}
	}

	c, err := Parse(data, format)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.File == "" {
			le.File = path
		}
		return nil, err
	}
	return c, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*template.Collection, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(data)
	case FormatCUE:
		return parseCUE(data)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported format %q", format)}
	}
}

// builder accumulates entries and rejects duplicate keys.
type builder struct {
	c *template.Collection
}

func newBuilder() *builder {
	return &builder{c: template.NewCollection()}
}

func (b *builder) add(key, text string, line int) error {
	if _, exists := b.c.Get(key); exists {
		return &LoadError{
			Code:    ErrCodeDuplicateKey,
			Message: fmt.Sprintf("duplicate key %q", key),
			Line:    line,
		}
	}
	b.c.Set(key, text)
	return nil
}
