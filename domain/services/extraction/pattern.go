// Package extraction holds the reference-extraction stage of the evidence
// pipeline: a registry of self-validating patterns and the extractor that
// applies them to activity text.
package extraction

import (
	"regexp"

	"careerlens/domain/core/valueobjects"
)

// Confidence is the tier a pattern's matches are trusted at
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence tiers; higher is more trusted
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether the tier meets a minimum
func (c Confidence) AtLeast(min Confidence) bool {
	return c.Rank() >= min.Rank()
}

// NormalizeFunc turns one regex match (whole match plus submatches) into the
// canonical reference string. A nil NormalizeFunc keeps the whole match.
type NormalizeFunc func(match []string) string

// Example is a positive registration example: Text must produce Want among
// its normalized references.
type Example struct {
	Text string
	Want string
}

// Pattern is one reference-extraction rule together with the machine-checkable
// examples that prove it works. Patterns are registered through a Registry,
// which re-runs every example and refuses the pattern if any fails — a broken
// regex fails at startup, not silently in production.
type Pattern struct {
	// ID uniquely identifies the pattern within a registry
	ID string

	// ToolType tags which tool the references belong to
	ToolType valueobjects.ToolType

	// Confidence is the trust tier of the pattern's matches
	Confidence Confidence

	// Expr is the regular expression source. It must compile and must not
	// match the empty string: a pattern that matches everywhere is the
	// degenerate case the registration gate exists to catch.
	Expr string

	// Normalize converts a match to the canonical reference string
	Normalize NormalizeFunc

	// Supersedes names an older pattern id this one replaces. The older
	// pattern stays registered but is excluded from ActivePatterns.
	Supersedes string

	// Positive examples must each yield their expected reference
	Positive []Example

	// Negative examples must yield zero matches
	Negative []string

	re *regexp.Regexp
}

// Regexp returns the compiled expression (set during registration)
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// normalize applies the pattern's NormalizeFunc, defaulting to the whole match
func (p *Pattern) normalize(match []string) string {
	if p.Normalize != nil {
		return p.Normalize(match)
	}
	return match[0]
}
