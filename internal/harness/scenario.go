package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rtmpl/internal/collection"
	"github.com/roach88/rtmpl/internal/template"
)

// Scenario defines a conformance test scenario: a template collection and
// the expected outcome for some or all of its keys.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MaxDepth overrides the resolver's default max depth.
	MaxDepth *int `yaml:"max_depth,omitempty"`

	// Collection is an inline mapping of key to template text.
	// Mutually exclusive with CollectionFile.
	Collection yaml.Node `yaml:"collection,omitempty"`

	// CollectionFile is a path to a collection file.
	// Relative paths are resolved against the scenario's base path.
	CollectionFile string `yaml:"collection_file,omitempty"`

	// Order optionally fixes the top-level resolution order.
	// Must be a permutation of the collection's keys.
	Order []string `yaml:"order,omitempty"`

	// Expect lists per-key expectations.
	Expect []Expectation `yaml:"expect"`

	// Templates is the decoded collection, populated by the loaders.
	// Scenarios built in code set it directly.
	Templates *template.Collection `yaml:"-"`
}

// Expectation describes the expected resolution of one key.
// Nil fields are not checked.
type Expectation struct {
	Key                 string    `yaml:"key"`
	Value               *string   `yaml:"value,omitempty"`
	Unreplaced          *[]string `yaml:"unreplaced,omitempty"`
	Impasse             *[]string `yaml:"impasse,omitempty"`
	ReachedMaxRecursion *bool     `yaml:"reached_max_recursion,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// collection_file paths are resolved relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving collection_file relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.CollectionFile != "" && !filepath.IsAbs(scenario.CollectionFile) && basePath != "" {
		scenario.CollectionFile = filepath.Join(basePath, scenario.CollectionFile)
	}

	if err := loadTemplates(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// loadTemplates decodes the inline collection or reads collection_file.
func loadTemplates(s *Scenario) error {
	inline := s.Collection.Kind != 0
	switch {
	case inline && s.CollectionFile != "":
		return fmt.Errorf("collection and collection_file are mutually exclusive")
	case inline:
		c, err := collection.FromYAMLNode(&s.Collection)
		if err != nil {
			return fmt.Errorf("collection: %w", err)
		}
		s.Templates = c
	case s.CollectionFile != "":
		c, err := collection.Load(s.CollectionFile)
		if err != nil {
			return fmt.Errorf("collection_file: %w", err)
		}
		s.Templates = c
	default:
		return fmt.Errorf("collection or collection_file is required")
	}
	return nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Templates == nil {
		return fmt.Errorf("collection is required")
	}

	if s.MaxDepth != nil && (*s.MaxDepth < 0 || *s.MaxDepth > template.MaxDepthLimit) {
		return fmt.Errorf("max_depth must be between 0 and %d, got %d", template.MaxDepthLimit, *s.MaxDepth)
	}

	if len(s.Order) > 0 {
		if len(s.Order) != s.Templates.Len() {
			return fmt.Errorf("order lists %d keys, collection has %d", len(s.Order), s.Templates.Len())
		}
		seen := make(map[string]bool, len(s.Order))
		for i, key := range s.Order {
			if _, ok := s.Templates.Get(key); !ok {
				return fmt.Errorf("order[%d]: unknown key %q", i, key)
			}
			if seen[key] {
				return fmt.Errorf("order[%d]: duplicate key %q", i, key)
			}
			seen[key] = true
		}
	}

	if len(s.Expect) == 0 {
		return fmt.Errorf("expect list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Expect))
	for i, exp := range s.Expect {
		if exp.Key == "" {
			return fmt.Errorf("expect[%d]: key is required", i)
		}
		if _, ok := s.Templates.Get(exp.Key); !ok {
			return fmt.Errorf("expect[%d]: key %q is not in the collection", i, exp.Key)
		}
		if seen[exp.Key] {
			return fmt.Errorf("expect[%d]: duplicate key %q", i, exp.Key)
		}
		seen[exp.Key] = true
	}

	return nil
}
