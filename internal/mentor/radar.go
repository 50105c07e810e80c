package mentor

import (
	"regexp"

	"codementor/pkg/models"
)

type pitfall struct {
	category    string
	pattern     *regexp.Regexp
	description string
	fix         string
}

// pitfalls drive the offline mistake radar; order is the report order
var pitfalls = []pitfall{
	{
		category:    "Off-by-one",
		pattern:     regexp.MustCompile(`(?i)<=\s*len|len\([^)]*\)\s*-\s*1|\bn\s*-\s*1\b|\bi\s*<=\s*n\b|\bindex\b|\bbound`),
		description: "Loop bounds or indices near the ends of the array look easy to get wrong.",
		fix:         "Walk through the first and last iteration by hand.",
	},
	{
		category:    "Integer overflow",
		pattern:     regexp.MustCompile(`(?i)\bint\b.*\*|\bsum\b|\bproduct\b|10\^9|1e9|\bmod(ulo)?\b|overflow`),
		description: "Sums or products may exceed 32-bit range.",
		fix:         "Use 64-bit integers or apply the modulus at every step.",
	},
	{
		category:    "Missed edge case",
		pattern:     regexp.MustCompile(`(?i)\bempty\b|\bnull\b|\bnil\b|\bNone\b|single element|\bzero\b|negative|duplicate`),
		description: "Empty, single-element, negative or duplicate inputs may not be handled.",
		fix:         "List the smallest and weirdest inputs and test each one.",
	},
	{
		category:    "Wrong complexity",
		pattern:     regexp.MustCompile(`(?i)nested loop|for .* for |brute|O\(n\^?2\)|O\(n²\)|TLE|time limit`),
		description: "The approach may be too slow for the constraints.",
		fix:         "Compare the complexity against the input size limits before coding.",
	},
	{
		category:    "Mutating while iterating",
		pattern:     regexp.MustCompile(`(?i)\b(remove|delete|pop|splice|erase)\b`),
		description: "Changing a collection while looping over it skips or repeats elements.",
		fix:         "Iterate over a copy or collect changes and apply them afterwards.",
	},
	{
		category:    "Uninitialized state",
		pattern:     regexp.MustCompile(`(?i)\bdp\b|memo|\bvisited\b|\bcache\b|initiali[sz]`),
		description: "DP tables, memo maps or visited sets may start with the wrong values.",
		fix:         "Write down the base cases and the initial value of every cell.",
	},
}

// ClassifyMistakes flags pitfall categories from free text without a model.
// The result is never nil.
func ClassifyMistakes(text string) []models.Mistake {
	found := []models.Mistake{}
	for _, p := range pitfalls {
		if p.pattern.MatchString(text) {
			found = append(found, models.Mistake{
				Category:    p.category,
				Description: p.description,
				Fix:         p.fix,
			})
		}
	}
	return found
}
