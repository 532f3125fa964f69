package refactor

import (
	"fmt"
	"strings"

	llmclient "codecraft/internal/llmClient"
)

// JSON field names the model must return.
const (
	FieldImprovedCode = "improvedCode"
	FieldExplanation  = "explanation"
	FieldKeyChanges   = "keyChanges"
)

// BuildPrompt renders the single natural-language prompt for req. The code is
// embedded verbatim between ``` fences.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have a piece of code written in %s.\n", req.Language)
	fmt.Fprintf(&b, "Please refactor this code with a primary focus on: %s.\n\n", req.Focus.Label())
	b.WriteString("The code is:\n```\n")
	b.WriteString(req.Code)
	if !strings.HasSuffix(req.Code, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("```\n\n")
	b.WriteString("If the code contains comments in a specific language (like Kurdish, Arabic, Spanish), " +
		"try to respect that context but provide the explanation in English unless the code clearly indicates otherwise.\n\n")
	b.WriteString("Return a valid JSON object containing:\n")
	fmt.Fprintf(&b, "1. %s: The complete refactored code string.\n", FieldImprovedCode)
	fmt.Fprintf(&b, "2. %s: A concise summary of why these changes were made and how they improve the code.\n", FieldExplanation)
	fmt.Fprintf(&b, "3. %s: An array of strings listing specific changes (e.g., \"Replaced var with const/let\", \"Removed nested loops\").\n", FieldKeyChanges)
	return b.String()
}

// ResponseSchema is the strict output shape requested from the provider.
func ResponseSchema() *llmclient.Schema {
	return &llmclient.Schema{
		Type: llmclient.TypeObject,
		Properties: map[string]*llmclient.Schema{
			FieldImprovedCode: {Type: llmclient.TypeString, Description: "The complete refactored code."},
			FieldExplanation:  {Type: llmclient.TypeString, Description: "Why the changes were made."},
			FieldKeyChanges: {
				Type:        llmclient.TypeArray,
				Description: "Specific changes, in order.",
				Items:       &llmclient.Schema{Type: llmclient.TypeString},
			},
		},
		Required: []string{FieldImprovedCode, FieldExplanation, FieldKeyChanges},
	}
}
