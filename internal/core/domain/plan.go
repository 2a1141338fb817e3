package domain

import (
	"fmt"
	"strings"
)

// RetrievalStrategy selects how context is gathered for one sub-question.
type RetrievalStrategy string

const (
	// StrategyVector answers fact/attribute lookups via similarity search
	// over embedded chunks.
	StrategyVector RetrievalStrategy = "vector_retrieval"
	// StrategyLLM answers holistic/summarization questions over the full
	// document text, without similarity ranking.
	StrategyLLM RetrievalStrategy = "llm_retrieval"
)

func ParseRetrievalStrategy(s string) (RetrievalStrategy, error) {
	switch RetrievalStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyVector:
		return StrategyVector, nil
	case StrategyLLM:
		return StrategyLLM, nil
	default:
		return "", fmt.Errorf("unknown retrieval strategy %q", s)
	}
}

// PlanItem is one sub-question with its retrieval strategy and target
// documents. Empty Targets means the sub-question is out of corpus scope.
type PlanItem struct {
	Question string            `json:"question"`
	Strategy RetrievalStrategy `json:"function"`
	Targets  []string          `json:"doc_names"`
}

// Plan is the ordered decomposition of one user question. Item order is
// execution order and must be preserved through to aggregation.
type Plan struct {
	Items []PlanItem `json:"subquestions"`
}

// Validate checks a parsed plan against the set of valid document names.
// Any unknown strategy or document fails the whole plan with ErrPlanInvalid.
func (p Plan) Validate(validDocs []string) error {
	valid := make(map[string]struct{}, len(validDocs))
	for _, name := range validDocs {
		valid[name] = struct{}{}
	}

	for i, item := range p.Items {
		if strings.TrimSpace(item.Question) == "" {
			return WrapError(ErrPlanInvalid, "validate plan", fmt.Errorf("item %d: empty question", i))
		}
		if _, err := ParseRetrievalStrategy(string(item.Strategy)); err != nil {
			return WrapError(ErrPlanInvalid, "validate plan", fmt.Errorf("item %d: %w", i, err))
		}
		for _, target := range item.Targets {
			if _, ok := valid[target]; !ok {
				return WrapError(ErrPlanInvalid, "validate plan", fmt.Errorf("item %d: unknown document %q", i, target))
			}
		}
	}
	return nil
}
