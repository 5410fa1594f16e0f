// Package canon provides canonical JSON serialization and content hashes.
//
// Canonical JSON follows RFC 8785: object keys sorted by UTF-16 code units,
// no HTML escaping, no insignificant whitespace. Strings are NFC normalized
// at the serialization boundary. Floats and nulls are rejected so the
// same logical value always produces identical bytes.
//
// Hashes are SHA-256 with domain separation:
//
//	SHA256(domain + 0x00 + canonical JSON)
package canon
