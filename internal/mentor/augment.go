package mentor

import (
	"fmt"
	"regexp"
	"strings"
)

var approachIntent = regexp.MustCompile(`(?i)approach|method|solution|how|better|start|solve|idea|logic`)

// AugmentQuery appends the full statement and reference solutions to a user
// message. With neither available the message is returned unchanged.
func AugmentQuery(message string, fullProblemText *string, solutions []string) string {
	var b strings.Builder
	b.WriteString(message)

	if fullProblemText != nil && *fullProblemText != "" {
		b.WriteString("\n\nFULL PROBLEM DESCRIPTION:\n")
		b.WriteString(*fullProblemText)
	}

	if len(solutions) > 0 {
		b.WriteString("\n\nREFERENCE CODE (internal use only — do NOT reproduce verbatim to user):\n")
		b.WriteString("Use these to verify your reasoning and ensure accuracy on hard problems.\n\n")
		labelled := make([]string, len(solutions))
		for i, s := range solutions {
			labelled[i] = fmt.Sprintf("[Solution %d]\n%s", i+1, s)
		}
		b.WriteString(strings.Join(labelled, "\n\n"))
	}

	return b.String()
}

// WantsApproach reports whether a message asks for solving guidance
func WantsApproach(message string) bool {
	return approachIntent.MatchString(message)
}
