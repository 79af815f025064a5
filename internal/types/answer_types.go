package types

// SearchResult represents a ranked knowledge base snippet produced by the
// retrieval tier. Results are treated as immutable once passed into answer
// generation; Score is a relevance value and is not normalized to [0,1].
type SearchResult struct {
	Content  string            `json:"content"`
	Source   string            `json:"source"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AnswerMethod identifies which tier of the degrade ladder produced an answer.
type AnswerMethod string

const (
	MethodRAG          AnswerMethod = "rag"
	MethodFallback     AnswerMethod = "fallback"
	MethodNoResults    AnswerMethod = "no_results"
	MethodLLMNoContext AnswerMethod = "llm_no_context"
)

// SourceRef is a single source attribution attached to an answer.
type SourceRef struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// RagAnswer is the uniform result of answer generation. It is created fresh
// per call and never persisted. Sources is empty (never nil) exactly when
// Method is no_results or llm_no_context.
type RagAnswer struct {
	Answer    string       `json:"answer"`
	Sources   []SourceRef  `json:"sources"`
	Method    AnswerMethod `json:"method"`
	QueryType string       `json:"query_type,omitempty"`
}
