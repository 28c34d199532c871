// Package hash computes content fingerprints for map generation requests.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint returns a stable hexadecimal digest of v. The value is
// serialized to canonical JSON (object keys sorted) before hashing, so two
// structurally identical values produce the same fingerprint regardless of
// field declaration order.
func Fingerprint(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize parameters: %w", err)
	}

	// Round-trip through a generic value. encoding/json emits map keys in
	// sorted order, which canonicalizes the object key ordering.
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("failed to canonicalize parameters: %w", err)
	}

	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canonical form: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
