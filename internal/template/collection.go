package template

import "slices"

// Collection is an ordered mapping from key to raw template text.
//
// Insertion order is the order in which Resolver visits top-level keys.
// Setting an existing key replaces its text and keeps its position.
type Collection struct {
	keys   []string
	values map[string]string
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{values: make(map[string]string)}
}

// FromMap builds a collection from m with keys in ascending order.
func FromMap(m map[string]string) *Collection {
	c := &Collection{
		keys:   make([]string, 0, len(m)),
		values: make(map[string]string, len(m)),
	}
	for key, text := range m {
		c.keys = append(c.keys, key)
		c.values[key] = text
	}
	slices.Sort(c.keys)
	return c
}

// Set adds or replaces key.
func (c *Collection) Set(key, text string) {
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = text
}

// Get returns the raw text for key.
func (c *Collection) Get(key string) (string, bool) {
	text, ok := c.values[key]
	return text, ok
}

// Keys returns the keys in insertion order. The slice is a copy.
func (c *Collection) Keys() []string {
	return slices.Clone(c.keys)
}

// Len returns the number of keys.
func (c *Collection) Len() int {
	return len(c.keys)
}

// Map returns a copy of the collection as a plain map.
func (c *Collection) Map() map[string]string {
	m := make(map[string]string, len(c.values))
	for key, text := range c.values {
		m[key] = text
	}
	return m
}
