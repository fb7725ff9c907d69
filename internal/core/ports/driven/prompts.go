package driven

// PromptStore provides the LLM prompt templates.
type PromptStore interface {
	// Load returns the template registered under name.
	Load(name string) (string, error)
}

// Prompt names. Each template is a fmt format string.
const (
	// PromptRouter takes the question.
	PromptRouter = "router"

	// PromptAdvisor takes the numbered excerpts, then the question.
	PromptAdvisor = "advisor"
)

// PromptArgs returns the number of %s placeholders a template must contain,
// or 0 for an unknown name.
func PromptArgs(name string) int {
	switch name {
	case PromptRouter:
		return 1
	case PromptAdvisor:
		return 2
	default:
		return 0
	}
}
