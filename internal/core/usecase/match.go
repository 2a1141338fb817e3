package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
)

// MatchJobsUseCase ranks postings against a candidate profile: embed the
// profile text, search the unified index across all documents, keep the best
// chunk per posting, order by descending similarity.
type MatchJobsUseCase struct {
	embedder   ports.Embedder
	index      ports.VectorIndex
	candidates int
}

func NewMatchJobsUseCase(embedder ports.Embedder, index ports.VectorIndex, candidates int) *MatchJobsUseCase {
	if candidates <= 0 {
		candidates = 30
	}
	return &MatchJobsUseCase{
		embedder:   embedder,
		index:      index,
		candidates: candidates,
	}
}

func (uc *MatchJobsUseCase) Match(ctx context.Context, profileText string, topK int) ([]domain.JobMatch, error) {
	profileText = strings.TrimSpace(profileText)
	if profileText == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "match jobs", fmt.Errorf("profile text is required"))
	}
	if topK <= 0 {
		topK = 5
	}

	vector, err := uc.embedder.EmbedQuery(ctx, profileText)
	if err != nil {
		return nil, fmt.Errorf("embed profile: %w", err)
	}

	hits, err := uc.index.Search(ctx, vector, uc.candidates, domain.SearchFilter{})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	best := make(map[string]domain.JobMatch, len(hits))
	for _, hit := range hits {
		current, seen := best[hit.DocName]
		if seen && current.Score >= hit.Score {
			continue
		}
		best[hit.DocName] = domain.JobMatch{
			DocName:       hit.DocName,
			JobTitle:      hit.JobTitle,
			Department:    hit.Department,
			Location:      hit.Location,
			WorkplaceType: hit.WorkplaceType,
			Score:         hit.Score,
			Snippet:       snippet(hit.Text, 240),
		}
	}

	out := make([]domain.JobMatch, 0, len(best))
	for _, match := range best {
		out = append(out, match)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DocName < out[j].DocName
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
