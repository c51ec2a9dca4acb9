package domain

import (
	"fmt"
	"strings"
)

// QualityVerdict is the score of one assembly attempt.
type QualityVerdict struct {
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// Passes reports whether the verdict reaches the acceptance threshold.
func (v QualityVerdict) Passes(threshold int) bool {
	return v.Score >= threshold
}

// Feedback renders issues and suggestions as "fix this" prompt context.
func (v QualityVerdict) Feedback() string {
	if len(v.Issues) == 0 && len(v.Suggestions) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "The previous draft scored %d/100. Fix the following before anything else.\n", v.Score)
	for _, issue := range v.Issues {
		fmt.Fprintf(&b, "- Issue: %s\n", issue)
	}
	for _, s := range v.Suggestions {
		fmt.Fprintf(&b, "- Suggestion: %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}
