package agent

import "strings"

// composeSystemPrompt joins the static prompt with the contributions of
// system-prompt hooks, in registration order, skipping empties. Hook
// failures are returned for non-terminal reporting.
func (a *Agent) composeSystemPrompt(contextValue any) (string, []error) {
	fragments, errs := a.hooks.fire(HookSystemPrompt, contextValue, nil)

	parts := make([]string, 0, 1+len(fragments))
	if a.systemPrompt != "" {
		parts = append(parts, a.systemPrompt)
	}
	for _, f := range fragments {
		if f != "" {
			parts = append(parts, f)
		}
	}

	return strings.Join(parts, "\n"), errs
}
