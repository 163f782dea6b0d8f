package llm

// Generator is the content-generation capability the simulation consumes:
// an opaque, potentially slow, potentially failing call. The core never
// assumes determinism or formatting beyond the documented prompt contracts.
type Generator interface {
	Complete(system, userPrompt string, maxTokens int) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(system, userPrompt string, maxTokens int) (string, error)

// Complete calls f.
func (f GeneratorFunc) Complete(system, userPrompt string, maxTokens int) (string, error) {
	return f(system, userPrompt, maxTokens)
}
