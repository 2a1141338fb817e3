package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

// pipelineLLMFake serves both the structured planning call and the plain
// completion calls, with fixed per-call costs, so end-to-end totals are
// deterministic.
type pipelineLLMFake struct {
	planPayload    string
	planCost       float64
	completeCost   float64
	completeCalls  int
	structuredErr  error
	completeErr    error
	failureMatcher string
}

func (f *pipelineLLMFake) Complete(_ context.Context, _, userPrompt string) (domain.Completion, error) {
	f.completeCalls++
	if f.completeErr != nil && (f.failureMatcher == "" || strings.Contains(userPrompt, f.failureMatcher)) {
		return domain.Completion{}, f.completeErr
	}
	return domain.Completion{Text: userPrompt, Cost: f.completeCost}, nil
}

func (f *pipelineLLMFake) CompleteStructured(context.Context, domain.StructuredRequest) (domain.StructuredCompletion, error) {
	if f.structuredErr != nil {
		return domain.StructuredCompletion{}, f.structuredErr
	}
	return domain.StructuredCompletion{
		Payload: json.RawMessage(f.planPayload),
		Cost:    f.planCost,
	}, nil
}

func newAnswerUseCase(llm *pipelineLLMFake, retrieval *retrievalFake) *AnswerQuestionUseCase {
	return NewAnswerQuestionUseCase(
		NewPlannerUseCase(llm),
		NewExecutorUseCase(retrieval, llm, 3, 2, time.Second),
		NewAggregatorUseCase(llm),
	)
}

func TestAnswerQuestionEndToEnd(t *testing.T) {
	llm := &pipelineLLMFake{
		planPayload:  `{"subquestions":[{"question":"What is the location of job X?","function":"vector_retrieval","doc_names":["JOB_1"]}]}`,
		planCost:     0.002,
		completeCost: 0.001,
	}
	retrieval := &retrievalFake{
		passages: map[string][]domain.RetrievalResult{
			"JOB_1": {{DocName: "JOB_1", JobTitle: "Engineer", Text: "Location: Paris", Score: 0.95}},
		},
	}
	uc := newAnswerUseCase(llm, retrieval)

	answer, err := uc.AnswerQuestion(context.Background(), "What is the location of job X?", "task", []string{"JOB_1", "JOB_2"})
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if answer.State != domain.StateDone {
		t.Fatalf("expected done state, got %s", answer.State)
	}
	if !strings.Contains(answer.FinalAnswer, "Paris") {
		t.Fatalf("expected final answer to contain Paris, got %q", answer.FinalAnswer)
	}
	// plan + one retrieval completion + aggregation
	want := 0.002 + 0.001 + 0.001
	if answer.TotalCost != want {
		t.Fatalf("expected total cost %f, got %f", want, answer.TotalCost)
	}
}

func TestAnswerQuestionIdempotentWithDeterministicStubs(t *testing.T) {
	build := func() (*AnswerQuestionUseCase, *pipelineLLMFake) {
		llm := &pipelineLLMFake{
			planPayload:  `{"subquestions":[{"question":"q1","function":"vector_retrieval","doc_names":["JOB_1"]},{"question":"q2","function":"llm_retrieval","doc_names":["JOB_2"]}]}`,
			planCost:     0.002,
			completeCost: 0.001,
		}
		retrieval := &retrievalFake{
			passages:  map[string][]domain.RetrievalResult{"JOB_1": {{DocName: "JOB_1", Text: "alpha", Score: 0.9}}},
			fullTexts: map[string]string{"JOB_2": "full text beta"},
		}
		return newAnswerUseCase(llm, retrieval), llm
	}

	uc1, _ := build()
	first, err := uc1.AnswerQuestion(context.Background(), "q", "task", []string{"JOB_1", "JOB_2"})
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	uc2, _ := build()
	second, err := uc2.AnswerQuestion(context.Background(), "q", "task", []string{"JOB_1", "JOB_2"})
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}

	if first.FinalAnswer != second.FinalAnswer {
		t.Fatalf("final answers differ:\n%q\n%q", first.FinalAnswer, second.FinalAnswer)
	}
	if first.TotalCost != second.TotalCost {
		t.Fatalf("total costs differ: %f vs %f", first.TotalCost, second.TotalCost)
	}
}

func TestAnswerQuestionInvalidPlanMakesNoBackendCalls(t *testing.T) {
	llm := &pipelineLLMFake{
		planPayload: `{"subquestions":[{"question":"q","function":"vector_retrieval","doc_names":["JOB_404"]}]}`,
	}
	retrieval := &retrievalFake{}
	uc := newAnswerUseCase(llm, retrieval)

	answer, err := uc.AnswerQuestion(context.Background(), "q", "task", []string{"JOB_1"})
	if !domain.IsKind(err, domain.ErrPlanInvalid) {
		t.Fatalf("expected ErrPlanInvalid, got %v", err)
	}
	if answer.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", answer.State)
	}
	if len(retrieval.calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", retrieval.calls)
	}
	if llm.completeCalls != 0 {
		t.Fatalf("expected no completion calls, got %d", llm.completeCalls)
	}
}

func TestAnswerQuestionDegradedSubquestionStillAggregates(t *testing.T) {
	llm := &pipelineLLMFake{
		planPayload:  `{"subquestions":[{"question":"q1","function":"vector_retrieval","doc_names":["JOB_1"]},{"question":"q2","function":"vector_retrieval","doc_names":["JOB_2"]}]}`,
		completeCost: 0.001,
	}
	retrieval := &retrievalFake{
		passages:  map[string][]domain.RetrievalResult{"JOB_1": {{DocName: "JOB_1", Text: "Location: Paris", Score: 0.9}}},
		searchErr: map[string]error{"JOB_2": errors.New("backend down")},
	}
	uc := newAnswerUseCase(llm, retrieval)

	answer, err := uc.AnswerQuestion(context.Background(), "q", "task", []string{"JOB_1", "JOB_2"})
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if len(answer.Partials) != 2 {
		t.Fatalf("expected 2 partials, got %d", len(answer.Partials))
	}
	if !answer.Partials[1].Degraded {
		t.Fatalf("expected second partial degraded: %+v", answer.Partials[1])
	}
	if !strings.Contains(answer.FinalAnswer, "Paris") {
		t.Fatalf("expected final answer from the successful partial, got %q", answer.FinalAnswer)
	}
	if strings.Contains(answer.FinalAnswer, "Retrieval failed") {
		t.Fatalf("degraded marker leaked into final answer: %q", answer.FinalAnswer)
	}
}

func TestAnswerQuestionAllOutOfScope(t *testing.T) {
	llm := &pipelineLLMFake{
		planPayload: `{"subquestions":[{"question":"Not about the corpus.","function":"llm_retrieval","doc_names":[]}]}`,
	}
	uc := newAnswerUseCase(llm, &retrievalFake{})

	answer, err := uc.AnswerQuestion(context.Background(), "weather?", "task", []string{"JOB_1"})
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if answer.State != domain.StateDone {
		t.Fatalf("expected done state, got %s", answer.State)
	}
	if !strings.Contains(answer.FinalAnswer, "outside the scope") {
		t.Fatalf("expected worded out-of-scope answer, got %q", answer.FinalAnswer)
	}
}

func TestAnswerQuestionAggregationFailureReturnsPartials(t *testing.T) {
	llm := &pipelineLLMFake{
		planPayload:    `{"subquestions":[{"question":"q1","function":"vector_retrieval","doc_names":["JOB_1"]}]}`,
		completeErr:    errors.New("provider down"),
		failureMatcher: "Answer:",
	}
	// Both the retrieval completion and aggregation prompts end with
	// "Answer:", so everything fails; the retrieval one degrades, then the
	// aggregation failure is fatal.
	retrieval := &retrievalFake{
		passages: map[string][]domain.RetrievalResult{"JOB_1": {{DocName: "JOB_1", Text: "alpha", Score: 0.9}}},
	}
	uc := newAnswerUseCase(llm, retrieval)

	answer, err := uc.AnswerQuestion(context.Background(), "q", "task", []string{"JOB_1"})
	if !domain.IsKind(err, domain.ErrAggregation) {
		t.Fatalf("expected ErrAggregation, got %v", err)
	}
	if answer.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", answer.State)
	}
	if len(answer.Partials) != 1 {
		t.Fatalf("expected partials alongside the failure, got %d", len(answer.Partials))
	}
}

func TestAnswerQuestionRequiresDocuments(t *testing.T) {
	uc := newAnswerUseCase(&pipelineLLMFake{}, &retrievalFake{})

	_, err := uc.AnswerQuestion(context.Background(), "q", "task", nil)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
