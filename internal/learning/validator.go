package learning

import (
	"fmt"
	"strings"

	"workflow-intelligence/internal/config"
)

// ValidationResult is a typed accept/reject decision for a captured sequence.
// Warnings flag suspicious but tolerable traits; they never block storage.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Validator enforces the structural rules a candidate pattern must satisfy
// before it enters the store.
type Validator struct {
	cfg config.LearningConfig
}

// NewValidator creates a validator.
func NewValidator(cfg config.LearningConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks sequence length bounds, the key-command requirement, command
// recognizability (prefix-tolerant; unknown commands warn, not fail) and
// duplicate-consecutive commands (warning).
func (v *Validator) Validate(sequence []string) ValidationResult {
	if len(sequence) < v.cfg.MinSequenceLength {
		return ValidationResult{
			Valid:  false,
			Reason: fmt.Sprintf("sequence length %d below minimum %d", len(sequence), v.cfg.MinSequenceLength),
		}
	}
	if len(sequence) > v.cfg.MaxSequenceLength {
		return ValidationResult{
			Valid:  false,
			Reason: fmt.Sprintf("sequence length %d above maximum %d", len(sequence), v.cfg.MaxSequenceLength),
		}
	}
	if !v.containsKeyCommand(sequence) {
		return ValidationResult{Valid: false, Reason: "sequence contains no key workflow command"}
	}

	var warnings []string
	for i, cmd := range sequence {
		if !v.isKnownCommand(cmd) {
			warnings = append(warnings, fmt.Sprintf("unrecognized command %q", cmd))
		}
		if i > 0 && cmd == sequence[i-1] {
			warnings = append(warnings, fmt.Sprintf("duplicate consecutive command %q", cmd))
		}
	}
	return ValidationResult{Valid: true, Warnings: warnings}
}

func (v *Validator) containsKeyCommand(sequence []string) bool {
	for _, cmd := range sequence {
		for _, key := range v.cfg.KeyCommands {
			if cmd == key {
				return true
			}
		}
	}
	return false
}

// isKnownCommand matches against the known-command set with prefix tolerance:
// "develop story-1.2" is recognized because it starts with "develop".
func (v *Validator) isKnownCommand(cmd string) bool {
	for _, known := range v.cfg.KnownCommands {
		if cmd == known || strings.HasPrefix(cmd, known+" ") || strings.HasPrefix(cmd, known+"-") {
			return true
		}
	}
	return false
}
