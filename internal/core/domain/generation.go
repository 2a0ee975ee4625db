package domain

// BuiltPrompt is the fully assembled prompt for one generation call.
// Rendered is SystemInstruction followed by UserMessage.
type BuiltPrompt struct {
	SystemInstruction string   `json:"system_instruction"`
	ContextBlocks     []string `json:"context_blocks"`
	UserQuery         string   `json:"user_query"`
	UserMessage       string   `json:"user_message"`
	Rendered          string   `json:"rendered"`
}

// LLMResponse normalises the outcome of a generation call.
type LLMResponse struct {
	Text     string `json:"text,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
	Model    string `json:"model,omitempty"`

	// Err keeps the typed failure for callers that branch on error kind.
	Err error `json:"-"`
}

// GenerationRequest is either a RawQuery or a FromPipeline.
type GenerationRequest interface {
	isGenerationRequest()
}

// RawQuery asks for an answer to query grounded on the given blocks.
type RawQuery struct {
	Query         string
	ContextBlocks []string
}

// FromPipeline asks for an answer grounded on a retrieval pipeline run.
type FromPipeline struct {
	Output PipelineOutput
}

func (RawQuery) isGenerationRequest()     {}
func (FromPipeline) isGenerationRequest() {}

type GeneratorResponse struct {
	Answer  string       `json:"answer"`
	Raw     *LLMResponse `json:"raw_response,omitempty"`
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`

	// ModelCalled is false when the answer was produced without a model call.
	ModelCalled bool `json:"-"`
}
