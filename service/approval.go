package service

import (
	"fmt"

	"wagerledger/models"
)

// QuorumSigners returns the distinct admins present in asserted, in admin order.
// Asserted identities outside the admin set and repeated assertions count once
// or not at all.
func QuorumSigners(admins, asserted []string) []string {
	claimed := make(map[string]struct{}, len(asserted))
	for _, id := range asserted {
		claimed[id] = struct{}{}
	}

	signers := make([]string, 0, len(admins))
	for _, admin := range admins {
		if _, ok := claimed[admin]; ok {
			signers = append(signers, admin)
			// admins are distinct, but guard against a malformed set
			delete(claimed, admin)
		}
	}
	return signers
}

// CountSigners returns the number of distinct admins present in asserted
func CountSigners(admins, asserted []string) int {
	return len(QuorumSigners(admins, asserted))
}

// CheckQuorum returns the counted signers, or ErrNotEnoughSigners when they
// fall short of the threshold
func CheckQuorum(params models.GameParameters, asserted []string) ([]string, error) {
	signers := QuorumSigners(params.Admins, asserted)
	if len(signers) < params.Threshold {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSigners, len(signers), params.Threshold)
	}
	return signers, nil
}
