package models

import (
	"errors"
	"fmt"
)

// GameParameters holds the global betting configuration.
// It is set once at start-up and never mutated afterwards.
type GameParameters struct {
	Multiplier      uint64   `json:"multiplier"`
	WithdrawalDelay int64    `json:"withdrawal_delay"` // seconds
	Admins          []string `json:"admins"`
	Threshold       int      `json:"threshold"`
}

// Validate checks that the admin set is well formed and the threshold is reachable
func (p *GameParameters) Validate() error {
	if len(p.Admins) == 0 {
		return errors.New("at least one admin is required")
	}

	seen := make(map[string]struct{}, len(p.Admins))
	for _, admin := range p.Admins {
		if admin == "" {
			return errors.New("admin identity cannot be empty")
		}
		if _, dup := seen[admin]; dup {
			return fmt.Errorf("duplicate admin identity %q", admin)
		}
		seen[admin] = struct{}{}
	}

	if p.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1, got %d", p.Threshold)
	}
	if p.Threshold > len(p.Admins) {
		return fmt.Errorf("threshold %d exceeds admin count %d", p.Threshold, len(p.Admins))
	}

	return nil
}

// IsAdmin reports whether id belongs to the admin set
func (p *GameParameters) IsAdmin(id string) bool {
	for _, admin := range p.Admins {
		if admin == id {
			return true
		}
	}
	return false
}
