package retrieval

import (
	"context"
	"fmt"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
)

// Backend implements the retrieval port over the vector index and the job
// store. vector_retrieval embeds the sub-question and runs a filtered
// similarity search; llm_retrieval fetches the posting's stored full text.
type Backend struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	repo     ports.JobRepository
}

func New(embedder ports.Embedder, index ports.VectorIndex, repo ports.JobRepository) *Backend {
	return &Backend{
		embedder: embedder,
		index:    index,
		repo:     repo,
	}
}

func (b *Backend) SimilaritySearch(ctx context.Context, query, docName string, k int) ([]domain.RetrievalResult, error) {
	vector, err := b.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := b.index.Search(ctx, vector, k, domain.SearchFilter{DocName: docName})
	if err != nil {
		return nil, fmt.Errorf("similarity search %s: %w", docName, err)
	}
	return results, nil
}

func (b *Backend) FetchFullText(ctx context.Context, docName string) (string, error) {
	text, err := b.repo.FullText(ctx, docName)
	if err != nil {
		return "", fmt.Errorf("fetch full text %s: %w", docName, err)
	}
	return text, nil
}
