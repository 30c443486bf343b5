// Package grants implements the control grant gate: the required-versus-
// approved set difference that blocks progress until every required
// `namespace:permission` grant has been approved.
package grants

import (
	"fmt"
	"strings"

	"github.com/charterhq/charter/internal/contract"
)

// Parse validates that a grant has the namespace:permission shape and
// returns it trimmed. Both parts must be non-empty.
func Parse(grant string) (string, error) {
	trimmed := strings.TrimSpace(grant)
	ns, perm, ok := strings.Cut(trimmed, ":")
	if !ok || strings.TrimSpace(ns) == "" || strings.TrimSpace(perm) == "" {
		return "", fmt.Errorf("invalid grant %q: expected namespace:permission", grant)
	}
	return trimmed, nil
}

// ParseAll parses a list of grants, failing on the first invalid one.
func ParseAll(list []string) ([]string, error) {
	parsed := make([]string, 0, len(list))
	for _, g := range list {
		p, err := Parse(g)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, p)
	}
	return parsed, nil
}

// Missing returns controlsRequired minus controlsApproved, preserving the
// order of controlsRequired. Approved grants outside the required set are
// ignored; the gate only ever checks required ⊆ approved.
func Missing(c *contract.Contract) []string {
	approved := make(map[string]bool, len(c.ControlsApproved))
	for _, g := range c.ControlsApproved {
		approved[g] = true
	}

	var missing []string
	for _, g := range c.ControlsRequired {
		if !approved[g] {
			missing = append(missing, g)
		}
	}
	return missing
}

// Approve adds grants to controlsApproved, skipping duplicates.
// Returns the grants that were newly added.
func Approve(c *contract.Contract, toApprove []string) []string {
	existing := make(map[string]bool, len(c.ControlsApproved))
	for _, g := range c.ControlsApproved {
		existing[g] = true
	}

	var added []string
	for _, g := range toApprove {
		if !existing[g] {
			c.ControlsApproved = append(c.ControlsApproved, g)
			existing[g] = true
			added = append(added, g)
		}
	}
	return added
}
