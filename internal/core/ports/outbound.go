package ports

import (
	"context"
	"io"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

// LanguageModel is a call-and-response completion service. Every invocation
// reports the monetary cost of the call alongside the generated payload.
type LanguageModel interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (domain.Completion, error)
	CompleteStructured(ctx context.Context, req domain.StructuredRequest) (domain.StructuredCompletion, error)
}

// RetrievalBackend gathers context for a sub-question. Implementations are
// long-lived, injected handles, safe for concurrent reads across parallel
// sub-question execution. SimilaritySearch results come back ordered by
// descending similarity.
type RetrievalBackend interface {
	SimilaritySearch(ctx context.Context, query, docName string, k int) ([]domain.RetrievalResult, error)
	FetchFullText(ctx context.Context, docName string) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores and searches job chunks in one unified collection.
type VectorIndex interface {
	IndexChunks(ctx context.Context, chunks []domain.JobChunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievalResult, error)
	Reset(ctx context.Context) error
}

// JobRepository persists and reads the job posting corpus.
type JobRepository interface {
	UpsertJobs(ctx context.Context, jobs []domain.JobPosting) error
	GetByDocName(ctx context.Context, docName string) (*domain.JobPosting, error)
	FullText(ctx context.Context, docName string) (string, error)
	ListDocNames(ctx context.Context) ([]string, error)
	ListJobs(ctx context.Context) ([]domain.JobPosting, error)
}

// JobSource fetches raw postings from the upstream careers API.
type JobSource interface {
	FetchPostings(ctx context.Context) ([]domain.JobPosting, error)
}

// Chunker splits text into embeddable pieces.
type Chunker interface {
	Split(text string) []string
}

// MessageQueue carries corpus refresh requests from the API to the worker.
type MessageQueue interface {
	PublishCorpusRefresh(ctx context.Context, requestID string) error
	SubscribeCorpusRefresh(ctx context.Context, handler func(context.Context, string) error) error
}

// CorpusExporter writes a snapshot of the corpus after a refresh.
type CorpusExporter interface {
	Export(ctx context.Context, jobs []domain.JobPosting, path string) error
}

// ResumeExtractor pulls plain text out of an uploaded resume.
type ResumeExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}
