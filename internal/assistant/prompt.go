package assistant

import (
	"strconv"
	"strings"
)

const (
	instruction = "Now answer the following finance-related query based on the user's spending habits:"
	refusal     = "Reply only if the question is related to finance and expenses. Otherwise, say: 'I am here to help you save money! Ask queries related to that.'"
)

// BuildContext renders an expense summary as one "category: amount" line per
// pair. Iteration order is the map's; callers must not rely on it.
func BuildContext(summary map[string]float64) string {
	lines := make([]string, 0, len(summary))
	for category, amount := range summary {
		lines = append(lines, category+": "+strconv.FormatFloat(amount, 'f', -1, 64))
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt assembles the full prompt: summary block, the fixed
// finance-only instruction, the user query verbatim, and the refusal
// template for off-topic questions.
func BuildPrompt(context, query string) string {
	var b strings.Builder
	b.WriteString("User's expense summary:\n")
	b.WriteString(context)
	b.WriteString("\n\n")
	b.WriteString(instruction)
	b.WriteString("\n")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(refusal)
	return b.String()
}
