// Package approval implements the approval artifact authority: canonical
// plan hashing and content-addressed storage of approval records.
//
// The plan hash is the sole trust anchor for execution. Any edit to a plan
// after approval produces a different hash, so the old artifact silently
// stops matching and a fresh approval is required. No revocation step
// exists or is needed.
package approval

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashPrefix identifies the digest algorithm in stored hashes.
const HashPrefix = "sha256:"

// ComputePlanHash returns "sha256:" + hex digest of the plan's canonical
// serialization. Canonicalization recursively sorts object keys; arrays
// keep their original order, so step order is part of the plan's identity.
// The hash is invariant under key-order permutation of the input and
// changes under any semantic change to the plan content.
func ComputePlanHash(planValue any) (string, error) {
	canonical, err := canonicalize(planValue)
	if err != nil {
		return "", fmt.Errorf("canonicalizing plan: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return HashPrefix + hex.EncodeToString(sum[:]), nil
}

// HexDigest strips the algorithm prefix from a plan hash.
// Returns an error if the hash does not carry the expected prefix.
func HexDigest(planHash string) (string, error) {
	digest, ok := strings.CutPrefix(planHash, HashPrefix)
	if !ok || digest == "" {
		return "", fmt.Errorf("malformed plan hash %q: expected %s<hex>", planHash, HashPrefix)
	}
	return digest, nil
}

// canonicalize produces a deterministic JSON serialization of the value.
// The value is round-tripped through generic JSON types first, after
// which encoding/json emits map keys in sorted order. Array order is
// preserved throughout.
func canonicalize(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return json.Marshal(generic)
}
