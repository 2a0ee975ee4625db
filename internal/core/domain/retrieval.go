package domain

// Metadata keys carried by knowledge-base passages.
const (
	MetaSection = "section"
	MetaHeading = "heading"
	MetaType    = "type"
	MetaSource  = "source"
)

// Passage is a raw nearest-neighbour hit as returned by a vector store.
type Passage struct {
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievalResult is a passage that cleared the relevance threshold.
// Rank is 1-based and contiguous within one retrieval.
type RetrievalResult struct {
	Rank        int               `json:"rank"`
	Score       float64           `json:"score"`
	RerankScore float64           `json:"rerank_score,omitempty"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PipelineOutput is the outcome of one retrieval pipeline run.
// ContextString is set when Success is true, Error otherwise.
type PipelineOutput struct {
	Success       bool              `json:"success"`
	ContextString string            `json:"context_string,omitempty"`
	Results       []RetrievalResult `json:"results"`
	Error         string            `json:"error,omitempty"`

	// Reason is ErrInvalidQuery or ErrNoContextFound when Success is false.
	Reason        error  `json:"-"`
	OriginalQuery string `json:"original_query"`
	CleanedQuery  string `json:"cleaned_query,omitempty"`
}
