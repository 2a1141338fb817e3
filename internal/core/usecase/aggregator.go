package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
)

const aggregatorSystemPrompt = `You are an assistant for question-answering tasks.
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
Use three sentences maximum and keep the answer concise.`

// AggregatorUseCase merges all partial answers plus the original question
// into one final synthesized answer. Degraded partials are left out of the
// context block; order of the rest is preserved.
type AggregatorUseCase struct {
	llm ports.LanguageModel
}

func NewAggregatorUseCase(llm ports.LanguageModel) *AggregatorUseCase {
	return &AggregatorUseCase{llm: llm}
}

func (uc *AggregatorUseCase) Aggregate(ctx context.Context, question string, partials []domain.PartialAnswer) (string, float64, error) {
	var ctxBlock strings.Builder
	for _, partial := range partials {
		if partial.Degraded {
			continue
		}
		ctxBlock.WriteString("\n")
		ctxBlock.WriteString(partial.Text)
	}

	completion, err := uc.llm.Complete(ctx, aggregatorSystemPrompt, fmt.Sprintf(
		"Question: %s\nContext: %s\nAnswer:",
		question, ctxBlock.String(),
	))
	if err != nil {
		return "", completion.Cost, domain.WrapError(domain.ErrAggregation, "aggregate partial answers", err)
	}
	return completion.Text, completion.Cost, nil
}
