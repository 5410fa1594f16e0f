package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the algorithm to change without collisions.
const (
	DomainCollection = "rtmpl/collection/v1"
	DomainReport     = "rtmpl/report/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash canonically marshals v and hashes it under domain.
func Hash(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}

// CollectionHash identifies an ordered template collection.
// Order is part of the identity because it is the top-level resolution
// order. Keys and texts are given as parallel slices.
func CollectionHash(keys []string, texts []string) (string, error) {
	if len(keys) != len(texts) {
		return "", fmt.Errorf("collection hash: %d keys but %d texts", len(keys), len(texts))
	}

	pairs := make([]any, len(keys))
	for i := range keys {
		pairs[i] = []any{keys[i], texts[i]}
	}
	return Hash(DomainCollection, map[string]any{"entries": pairs})
}
