package versiondate

import (
	"errors"
	"fmt"
)

// ErrUnknownLabel is returned when a bug-fix label isn't one of the four
// labels the original tool recognizes.
var ErrUnknownLabel = errors.New("versiondate: unknown label")

// ValidLabels enumerates every bug-fix commit label `szz mine --label`
// and szz.label in the config file may select.
var ValidLabels = []string{
	"validated_bugfix",
	"adjustedszz_bugfix",
	"issueonly_bugfix",
	"issuefasttext_bugfix",
}

// ValidateLabel returns ErrUnknownLabel, wrapping label, unless label is
// one of ValidLabels. This is the single place that stands between
// user input (a CLI flag or config file value) and the label reaching a
// query built with it, so no caller needs to re-derive the allowlist.
func ValidateLabel(label string) error {
	for _, valid := range ValidLabels {
		if label == valid {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLabel, label)
}
