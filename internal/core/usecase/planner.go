package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
)

const plannerSystemPrompt = `You are an AI assistant that specializes in breaking down complex questions into simpler, manageable sub-questions.
You have at your disposal a pre-defined set of functions and documents to utilize in answering each sub-question.
Your output must only contain the provided function names and document names, and each sub-question must be a full question answerable with a single function.
Use vector_retrieval for fact-based questions such as locations, titles, departments and requirements.
Use llm_retrieval for summarization questions over a whole posting.
If the question is outside the scope of the job postings, return one sub-question explaining that, with an empty doc_names list.`

// PlannerUseCase turns one user question into an ordered execution plan via
// a schema-constrained language model call. The schema is rebuilt per request
// so doc_names is an enumeration of exactly the valid document set; the
// response is parsed then validated and anything outside the enumeration
// fails with ErrPlanInvalid. No automatic retry: the caller decides.
type PlannerUseCase struct {
	llm ports.LanguageModel
}

func NewPlannerUseCase(llm ports.LanguageModel) *PlannerUseCase {
	return &PlannerUseCase{llm: llm}
}

func (uc *PlannerUseCase) Plan(
	ctx context.Context,
	question string,
	taskContext string,
	validDocs []string,
) (domain.Plan, float64, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Plan{}, 0, domain.WrapError(domain.ErrInvalidInput, "plan question", fmt.Errorf("question is required"))
	}

	schema, err := buildPlanSchema(validDocs)
	if err != nil {
		return domain.Plan{}, 0, fmt.Errorf("build plan schema: %w", err)
	}

	resp, err := uc.llm.CompleteStructured(ctx, domain.StructuredRequest{
		SystemPrompt: plannerSystemPrompt,
		UserPrompt:   fmt.Sprintf("%s\nUser's question: %s", taskContext, question),
		FewShot:      plannerFewShot(),
		Schema: domain.ResponseSchema{
			Name:        "subquestion_plan",
			Description: "A list of sub-questions with the function and documents to answer each one.",
			Schema:      schema,
		},
	})
	if err != nil {
		return domain.Plan{}, 0, domain.WrapError(domain.ErrPlanInvalid, "plan question", err)
	}

	plan, err := parsePlan(resp.Payload)
	if err != nil {
		return domain.Plan{}, resp.Cost, domain.WrapError(domain.ErrPlanInvalid, "plan question", err)
	}
	if err := plan.Validate(validDocs); err != nil {
		return domain.Plan{}, resp.Cost, err
	}
	return plan, resp.Cost, nil
}

func parsePlan(payload json.RawMessage) (domain.Plan, error) {
	var plan domain.Plan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return domain.Plan{}, fmt.Errorf("unmarshal plan payload: %w", err)
	}
	if len(plan.Items) == 0 {
		return domain.Plan{}, fmt.Errorf("plan contains no sub-questions")
	}
	for i := range plan.Items {
		plan.Items[i].Question = strings.TrimSpace(plan.Items[i].Question)
	}
	return plan, nil
}

// buildPlanSchema constructs the per-request JSON schema. The doc_names enum
// is the closed set of valid documents, so schema-aware providers reject
// invented identifiers before validation even runs.
func buildPlanSchema(validDocs []string) (json.RawMessage, error) {
	docNames := map[string]any{"type": "string"}
	if len(validDocs) > 0 {
		enum := make([]string, len(validDocs))
		copy(enum, validDocs)
		docNames["enum"] = enum
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subquestions": map[string]any{
				"type":        "array",
				"description": "Sub-questions in execution order.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The sub-question extracted from the user's query.",
						},
						"function": map[string]any{
							"type":        "string",
							"enum":        []string{string(domain.StrategyVector), string(domain.StrategyLLM)},
							"description": "The function to use: vector_retrieval or llm_retrieval.",
						},
						"doc_names": map[string]any{
							"type":        "array",
							"items":       docNames,
							"description": "Which documents to use. Empty when out of scope.",
						},
					},
					"required": []string{"question", "function", "doc_names"},
				},
			},
		},
		"required": []string{"subquestions"},
	}
	return json.Marshal(schema)
}

func plannerFewShot() []domain.PromptExchange {
	return []domain.PromptExchange{
		{
			User: "Give me a brief overview of the company's main products.",
			Response: `{"subquestions":[{"question":"What are the company's main products?","function":"vector_retrieval","doc_names":["COMPANY_OVERVIEW"]}]}`,
		},
		{
			User: "Which roles are available for entry-level engineers in the New York office?",
			Response: `{"subquestions":[{"question":"Which open roles mention entry-level or junior engineering positions in New York?","function":"vector_retrieval","doc_names":["PALANTIR_JOBS_1"]}]}`,
		},
		{
			User: "Summarize the responsibilities of the forward deployed engineer posting.",
			Response: `{"subquestions":[{"question":"What are the responsibilities in the forward deployed engineer posting?","function":"llm_retrieval","doc_names":["PALANTIR_JOBS_3"]}]}`,
		},
		{
			User: "What is the company's mission statement, and do they have any internship roles available in London?",
			Response: `{"subquestions":[{"question":"What is the company's mission statement?","function":"vector_retrieval","doc_names":["COMPANY_OVERVIEW"]},{"question":"List internship roles in London.","function":"vector_retrieval","doc_names":["PALANTIR_JOBS_2"]}]}`,
		},
		{
			User: "What's the weather like in Paris today?",
			Response: `{"subquestions":[{"question":"The question is not about the job postings corpus and cannot be answered from it.","function":"llm_retrieval","doc_names":[]}]}`,
		},
	}
}
