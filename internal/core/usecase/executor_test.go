package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

type retrievalFake struct {
	mu        sync.Mutex
	passages  map[string][]domain.RetrievalResult
	fullTexts map[string]string
	searchErr map[string]error
	calls     []string
}

func (f *retrievalFake) SimilaritySearch(_ context.Context, query, docName string, _ int) ([]domain.RetrievalResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "search:"+docName)
	f.mu.Unlock()
	if err := f.searchErr[docName]; err != nil {
		return nil, err
	}
	return f.passages[docName], nil
}

func (f *retrievalFake) FetchFullText(_ context.Context, docName string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "fulltext:"+docName)
	f.mu.Unlock()
	text, ok := f.fullTexts[docName]
	if !ok {
		return "", domain.ErrJobNotFound
	}
	return text, nil
}

// echoLLM answers with its prompt context so tests can assert that retrieved
// passages flow into the completion.
type echoLLM struct {
	cost  float64
	delay time.Duration
	calls atomic.Int64
}

func (f *echoLLM) Complete(ctx context.Context, _, userPrompt string) (domain.Completion, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.Completion{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return domain.Completion{Text: userPrompt, Cost: f.cost}, nil
}

func (f *echoLLM) CompleteStructured(context.Context, domain.StructuredRequest) (domain.StructuredCompletion, error) {
	return domain.StructuredCompletion{}, errors.New("not used")
}

func TestExecutorVectorRetrievalAnswerContainsPassage(t *testing.T) {
	retrieval := &retrievalFake{
		passages: map[string][]domain.RetrievalResult{
			"JOB_1": {{DocName: "JOB_1", JobTitle: "Engineer", Text: "Location: Paris", Score: 0.91}},
		},
	}
	uc := NewExecutorUseCase(retrieval, &echoLLM{cost: 0.001}, 3, 2, time.Second)

	plan := domain.Plan{Items: []domain.PlanItem{{
		Question: "What is the location of job X?",
		Strategy: domain.StrategyVector,
		Targets:  []string{"JOB_1"},
	}}}
	ledger := domain.NewCostLedger()

	partials, err := uc.Execute(context.Background(), plan, ledger)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(partials) != 1 {
		t.Fatalf("expected 1 partial, got %d", len(partials))
	}
	if !strings.Contains(partials[0].Text, "Paris") {
		t.Fatalf("expected answer to contain retrieved passage, got %q", partials[0].Text)
	}
	if partials[0].Degraded {
		t.Fatalf("unexpected degraded partial: %+v", partials[0])
	}
	if ledger.Total() != 0.001 {
		t.Fatalf("expected ledger total 0.001, got %f", ledger.Total())
	}
}

func TestExecutorSummaryRetrievalUsesFullText(t *testing.T) {
	retrieval := &retrievalFake{
		fullTexts: map[string]string{"JOB_2": "JOB ID: 2 TITLE: Data Scientist LOCATION: London"},
	}
	uc := NewExecutorUseCase(retrieval, &echoLLM{}, 3, 2, time.Second)

	plan := domain.Plan{Items: []domain.PlanItem{{
		Question: "Summarize this posting.",
		Strategy: domain.StrategyLLM,
		Targets:  []string{"JOB_2"},
	}}}

	partials, err := uc.Execute(context.Background(), plan, domain.NewCostLedger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(partials[0].Text, "Data Scientist") {
		t.Fatalf("expected full text in answer, got %q", partials[0].Text)
	}
}

func TestExecutorOutOfScopeItemMakesNoBackendCall(t *testing.T) {
	retrieval := &retrievalFake{}
	llm := &echoLLM{cost: 1}
	uc := NewExecutorUseCase(retrieval, llm, 3, 2, time.Second)

	plan := domain.Plan{Items: []domain.PlanItem{{
		Question: "This is out of scope.",
		Strategy: domain.StrategyLLM,
	}}}
	ledger := domain.NewCostLedger()

	partials, err := uc.Execute(context.Background(), plan, ledger)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(partials) != 1 || partials[0].Text != outOfScopeAnswer {
		t.Fatalf("expected out-of-scope marker, got %+v", partials)
	}
	if len(retrieval.calls) != 0 || llm.calls.Load() != 0 {
		t.Fatalf("expected no backend calls, got retrieval=%v llm=%d", retrieval.calls, llm.calls.Load())
	}
	if ledger.Total() != 0 {
		t.Fatalf("expected zero cost, got %f", ledger.Total())
	}
}

func TestExecutorDegradesFailedTargetWithoutAborting(t *testing.T) {
	retrieval := &retrievalFake{
		passages: map[string][]domain.RetrievalResult{
			"JOB_1": {{DocName: "JOB_1", Text: "Location: Paris", Score: 0.9}},
		},
		searchErr: map[string]error{"JOB_2": errors.New("backend unavailable")},
	}
	uc := NewExecutorUseCase(retrieval, &echoLLM{cost: 0.001}, 3, 2, time.Second)

	plan := domain.Plan{Items: []domain.PlanItem{
		{Question: "q1", Strategy: domain.StrategyVector, Targets: []string{"JOB_1"}},
		{Question: "q2", Strategy: domain.StrategyVector, Targets: []string{"JOB_2"}},
	}}

	partials, err := uc.Execute(context.Background(), plan, domain.NewCostLedger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(partials) != 2 {
		t.Fatalf("expected 2 partials, got %d", len(partials))
	}
	if partials[0].Degraded {
		t.Fatalf("first partial should succeed: %+v", partials[0])
	}
	if !partials[1].Degraded {
		t.Fatalf("second partial should degrade: %+v", partials[1])
	}
}

func TestExecutorMultiTargetKeepsAllAnswers(t *testing.T) {
	retrieval := &retrievalFake{
		passages: map[string][]domain.RetrievalResult{
			"JOB_1": {{DocName: "JOB_1", Text: "alpha", Score: 0.9}},
			"JOB_2": {{DocName: "JOB_2", Text: "beta", Score: 0.8}},
		},
	}
	uc := NewExecutorUseCase(retrieval, &echoLLM{}, 3, 4, time.Second)

	plan := domain.Plan{Items: []domain.PlanItem{{
		Question: "q",
		Strategy: domain.StrategyVector,
		Targets:  []string{"JOB_1", "JOB_2"},
	}}}

	partials, err := uc.Execute(context.Background(), plan, domain.NewCostLedger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(partials) != 2 {
		t.Fatalf("expected one partial per target, got %d", len(partials))
	}
	if partials[0].Source != "JOB_1" || partials[1].Source != "JOB_2" {
		t.Fatalf("expected target order preserved, got %s then %s", partials[0].Source, partials[1].Source)
	}
}

func TestExecutorPreservesPlanOrderUnderConcurrency(t *testing.T) {
	const n = 12
	retrieval := &retrievalFake{passages: map[string][]domain.RetrievalResult{}}
	items := make([]domain.PlanItem, n)
	for i := 0; i < n; i++ {
		doc := fmt.Sprintf("JOB_%d", i)
		retrieval.passages[doc] = []domain.RetrievalResult{{DocName: doc, Text: doc, Score: 0.5}}
		items[i] = domain.PlanItem{
			Question: fmt.Sprintf("question %d", i),
			Strategy: domain.StrategyVector,
			Targets:  []string{doc},
		}
	}
	uc := NewExecutorUseCase(retrieval, &echoLLM{delay: time.Millisecond}, 3, 5, time.Second)

	partials, err := uc.Execute(context.Background(), domain.Plan{Items: items}, domain.NewCostLedger())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for i, partial := range partials {
		want := fmt.Sprintf("JOB_%d", i)
		if partial.Source != want {
			t.Fatalf("position %d: expected source %s, got %s", i, want, partial.Source)
		}
	}
}

func TestExecutorCancellationKeepsSunkCost(t *testing.T) {
	retrieval := &retrievalFake{
		passages: map[string][]domain.RetrievalResult{
			"JOB_1": {{DocName: "JOB_1", Text: "fast", Score: 0.9}},
			"JOB_2": {{DocName: "JOB_2", Text: "slow", Score: 0.9}},
			"JOB_3": {{DocName: "JOB_3", Text: "slow", Score: 0.9}},
		},
	}
	llm := &slowSecondCallLLM{cost: 0.004}
	uc := NewExecutorUseCase(retrieval, llm, 3, 1, time.Minute)

	plan := domain.Plan{Items: []domain.PlanItem{
		{Question: "q1", Strategy: domain.StrategyVector, Targets: []string{"JOB_1"}},
		{Question: "q2", Strategy: domain.StrategyVector, Targets: []string{"JOB_2"}},
		{Question: "q3", Strategy: domain.StrategyVector, Targets: []string{"JOB_3"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	llm.cancel = cancel
	ledger := domain.NewCostLedger()

	partials, err := uc.Execute(ctx, plan, ledger)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(partials) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(partials))
	}
	// Exactly the completed first call is accounted.
	if ledger.Total() != 0.004 {
		t.Fatalf("expected sunk cost 0.004, got %f", ledger.Total())
	}
}

// slowSecondCallLLM completes its first call normally, then cancels the
// request and fails subsequent calls with the context error.
type slowSecondCallLLM struct {
	cost   float64
	cancel context.CancelFunc
	calls  atomic.Int64
}

func (f *slowSecondCallLLM) Complete(ctx context.Context, _, userPrompt string) (domain.Completion, error) {
	if f.calls.Add(1) == 1 {
		return domain.Completion{Text: userPrompt, Cost: f.cost}, nil
	}
	f.cancel()
	<-ctx.Done()
	return domain.Completion{}, ctx.Err()
}

func (f *slowSecondCallLLM) CompleteStructured(context.Context, domain.StructuredRequest) (domain.StructuredCompletion, error) {
	return domain.StructuredCompletion{}, errors.New("not used")
}
