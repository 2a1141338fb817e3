package domain

type SearchFilter struct {
	DocName string
}

// RetrievalResult is one ranked passage returned by the retrieval backend.
// Score is cosine similarity: descending means more similar first. That
// convention is fixed for every backend implementation.
type RetrievalResult struct {
	DocName       string  `json:"doc_name"`
	JobTitle      string  `json:"job_title"`
	Department    string  `json:"department"`
	Location      string  `json:"location"`
	WorkplaceType string  `json:"workplace_type"`
	Tags          string  `json:"tags"`
	ChunkIndex    int     `json:"chunk_index"`
	Text          string  `json:"text"`
	Score         float64 `json:"score"`
}

// PartialAnswer is the answer to one (plan item, target) pair. Degraded
// marks a sub-question whose backend call failed; the pipeline keeps going.
type PartialAnswer struct {
	Question string  `json:"question"`
	Source   string  `json:"source,omitempty"`
	Text     string  `json:"text"`
	Cost     float64 `json:"cost"`
	Degraded bool    `json:"degraded,omitempty"`
}

// Completion is a language model response with its monetary cost.
type Completion struct {
	Text string
	Cost float64
}

// Answer is the synthesized response to one user question.
type Answer struct {
	FinalAnswer string          `json:"final_answer"`
	TotalCost   float64         `json:"total_cost"`
	Partials    []PartialAnswer `json:"partials,omitempty"`
	State       RequestState    `json:"state"`
}

// RequestState tracks a question through the pipeline.
type RequestState string

const (
	StateReceived   RequestState = "received"
	StatePlanned    RequestState = "planned"
	StateExecuting  RequestState = "executing"
	StateAggregated RequestState = "aggregated"
	StateDone       RequestState = "done"
	StateFailed     RequestState = "failed"
)

// JobMatch is one ranked job for a candidate profile.
type JobMatch struct {
	DocName       string  `json:"doc_name"`
	JobTitle      string  `json:"job_title"`
	Department    string  `json:"department"`
	Location      string  `json:"location"`
	WorkplaceType string  `json:"workplace_type"`
	Score         float64 `json:"score"`
	Snippet       string  `json:"snippet,omitempty"`
}
