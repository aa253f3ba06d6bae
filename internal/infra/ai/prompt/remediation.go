package prompt

import "fmt"

// GetSystemPrompt frames the model as a remediation advisor for container
// image vulnerabilities.
func GetSystemPrompt() string {
	return `You are a senior application security analyst. You will be given the raw findings of a container image vulnerability scan. Respond with concise, actionable remediation steps in plain text (no markdown, no commentary).

Requirements:
- At most 10 short steps, ordered by impact.
- Name the affected package or component in each step where the findings allow it.
- Prefer version upgrades and base-image changes over workarounds.
- If the findings are empty or unclear, respond with general container hardening advice.`
}

// GetUserPrompt wraps the aggregated finding text.
func GetUserPrompt(findingText string) string {
	return fmt.Sprintf("Suggest remediation steps for these scan findings:\n%s", findingText)
}
