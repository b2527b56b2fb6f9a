package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainQuery separates query fingerprints from any other hash in the
// system. The version suffix allows migrating the algorithm later.
const DomainQuery = "cypherbuild/query/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a built query.
// Params may be nil; nil and empty tables hash the same.
func Fingerprint(cypher string, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	data, err := Marshal(map[string]any{
		"cypher": cypher,
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, data), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when params are known to be valid.
func MustFingerprint(cypher string, params map[string]any) string {
	fp, err := Fingerprint(cypher, params)
	if err != nil {
		panic(err)
	}
	return fp
}
