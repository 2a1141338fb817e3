package ports

import (
	"context"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

// QuestionAnswerer is the inbound contract every CLI, HTTP endpoint or REPL
// calls to answer one user question over the corpus.
type QuestionAnswerer interface {
	AnswerQuestion(ctx context.Context, question, taskContext string, validDocs []string) (*domain.Answer, error)
}

// JobMatcher ranks corpus jobs against a candidate profile.
type JobMatcher interface {
	Match(ctx context.Context, profileText string, topK int) ([]domain.JobMatch, error)
}

// CorpusIngestor runs the offline refresh pipeline: fetch, store, chunk,
// embed, index, export.
type CorpusIngestor interface {
	Refresh(ctx context.Context) (*domain.RefreshReport, error)
}
