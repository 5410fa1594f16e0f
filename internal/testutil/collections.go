// Package testutil builds deterministic template collections for tests.
package testutil

import (
	"fmt"

	"github.com/roach88/rtmpl/internal/template"
)

// Collection builds an ordered collection from alternating key, text pairs.
// Panics on an odd number of arguments.
func Collection(pairs ...string) *template.Collection {
	if len(pairs)%2 != 0 {
		panic("testutil.Collection: odd number of arguments")
	}
	c := template.NewCollection()
	for i := 0; i < len(pairs); i += 2 {
		c.Set(pairs[i], pairs[i+1])
	}
	return c
}

// Key returns the i-th generated key. Keys sort in index order for i < 100.
func Key(i int) string {
	return fmt.Sprintf("k%02d", i)
}

// Chain builds a linear chain of n entries where each entry references the
// next and the last entry's text is tail:
//
//	k00: "{{k01}}", k01: "{{k02}}", ..., k(n-1): tail
//
// Resolving k00 needs n-1 levels of recursion.
func Chain(n int, tail string) *template.Collection {
	c := template.NewCollection()
	for i := 0; i < n; i++ {
		if i == n-1 {
			c.Set(Key(i), tail)
			continue
		}
		c.Set(Key(i), "{{"+Key(i+1)+"}}")
	}
	return c
}

// Ring builds n entries that reference each other in a cycle:
//
//	k00: "{{k01}}", ..., k(n-1): "{{k00}}"
func Ring(n int) *template.Collection {
	c := template.NewCollection()
	for i := 0; i < n; i++ {
		c.Set(Key(i), "{{"+Key((i+1)%n)+"}}")
	}
	return c
}

// Reversed returns the keys of c in reverse insertion order.
func Reversed(c *template.Collection) []string {
	keys := c.Keys()
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}
