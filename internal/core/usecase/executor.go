package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
)

const answerFromContextPrompt = `You are an assistant for question-answering tasks.
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
Use three sentences maximum and keep the answer concise.`

const outOfScopeAnswer = "This sub-question is outside the scope of the job postings corpus."

// ExecutorUseCase runs a plan: one retrieval + completion per
// (plan item, target) pair, fanned out over a bounded worker pool. Results
// always come back in plan order regardless of completion order, and the
// cost of each completed call is recorded in the ledger as it completes, so
// a cancelled request still accounts for work already done.
type ExecutorUseCase struct {
	retrieval ports.RetrievalBackend
	llm       ports.LanguageModel

	topK        int
	maxParallel int
	callTimeout time.Duration
}

func NewExecutorUseCase(retrieval ports.RetrievalBackend, llm ports.LanguageModel, topK, maxParallel int, callTimeout time.Duration) *ExecutorUseCase {
	if topK <= 0 {
		topK = 3
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &ExecutorUseCase{
		retrieval:   retrieval,
		llm:         llm,
		topK:        topK,
		maxParallel: maxParallel,
		callTimeout: callTimeout,
	}
}

type executionTask struct {
	question string
	strategy domain.RetrievalStrategy
	target   string // empty for out-of-scope items
}

func (uc *ExecutorUseCase) Execute(ctx context.Context, plan domain.Plan, ledger *domain.CostLedger) ([]domain.PartialAnswer, error) {
	tasks := expandPlan(plan)
	results := make([]domain.PartialAnswer, len(tasks))

	var wg sync.WaitGroup
	sem := make(chan struct{}, uc.maxParallel)

dispatch:
	for i, task := range tasks {
		if task.target == "" {
			results[i] = domain.PartialAnswer{
				Question: task.question,
				Text:     outOfScopeAnswer,
			}
			continue
		}

		select {
		case <-ctx.Done():
			// Stop scheduling; unstarted tasks degrade below.
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(slot int, task executionTask) {
			defer wg.Done()
			defer func() { <-sem }()
			results[slot] = uc.runTask(ctx, task, ledger)
		}(i, task)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return orderedResults(results, tasks), err
	}
	return results, nil
}

func (uc *ExecutorUseCase) runTask(ctx context.Context, task executionTask, ledger *domain.CostLedger) domain.PartialAnswer {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()

	var (
		completion domain.Completion
		err        error
	)
	switch task.strategy {
	case domain.StrategyVector:
		completion, err = uc.vectorRetrieval(callCtx, task.question, task.target)
	case domain.StrategyLLM:
		completion, err = uc.summaryRetrieval(callCtx, task.question, task.target)
	default:
		err = fmt.Errorf("unknown strategy %q", task.strategy)
	}

	ledger.Add(completion.Cost)

	if err != nil {
		slog.Warn("subquestion_degraded",
			"question", task.question,
			"target", task.target,
			"strategy", string(task.strategy),
			"error", err,
		)
		return domain.PartialAnswer{
			Question: task.question,
			Source:   task.target,
			Text:     fmt.Sprintf("Retrieval failed for document %s.", task.target),
			Cost:     completion.Cost,
			Degraded: true,
		}
	}

	return domain.PartialAnswer{
		Question: task.question,
		Source:   task.target,
		Text:     completion.Text,
		Cost:     completion.Cost,
	}
}

func (uc *ExecutorUseCase) vectorRetrieval(ctx context.Context, question, target string) (domain.Completion, error) {
	passages, err := uc.retrieval.SimilaritySearch(ctx, question, target, uc.topK)
	if err != nil {
		return domain.Completion{}, domain.WrapError(domain.ErrRetrieval, "similarity search", err)
	}

	completion, err := uc.llm.Complete(ctx, answerFromContextPrompt, fmt.Sprintf(
		"Question: %s\nContext:\n%s\nAnswer:",
		question, buildContextBlock(passages),
	))
	if err != nil {
		return domain.Completion{Cost: completion.Cost}, domain.WrapError(domain.ErrRetrieval, "answer from passages", err)
	}
	return completion, nil
}

func (uc *ExecutorUseCase) summaryRetrieval(ctx context.Context, question, target string) (domain.Completion, error) {
	fullText, err := uc.retrieval.FetchFullText(ctx, target)
	if err != nil {
		return domain.Completion{}, domain.WrapError(domain.ErrRetrieval, "fetch full text", err)
	}

	completion, err := uc.llm.Complete(ctx, answerFromContextPrompt, fmt.Sprintf(
		"Here is some context: %s\nUse only the provided context to answer the question.\nHere is the question: %s",
		fullText, question,
	))
	if err != nil {
		return domain.Completion{Cost: completion.Cost}, domain.WrapError(domain.ErrRetrieval, "answer from full text", err)
	}
	return completion, nil
}

// buildContextBlock joins retrieved passages with their metadata headers so
// the model can lean on structured fields, not just chunk text.
func buildContextBlock(passages []domain.RetrievalResult) string {
	if len(passages) == 0 {
		return "(no passages retrieved)"
	}
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		blocks = append(blocks, fmt.Sprintf(
			"[METADATA]\nSource Doc: %s\nJob Title: %s\nDepartment: %s\nLocation: %s\nWorkplace Type: %s\nTags: %s\n\n[CHUNK DATA]\n%s",
			p.DocName, p.JobTitle, p.Department, p.Location, p.WorkplaceType, p.Tags, p.Text,
		))
	}
	return strings.Join(blocks, "\n---\n")
}

// expandPlan flattens a plan into (item, target) tasks, preserving item
// order and target order within an item. Out-of-scope items keep one task
// with an empty target.
func expandPlan(plan domain.Plan) []executionTask {
	tasks := make([]executionTask, 0, len(plan.Items))
	for _, item := range plan.Items {
		if len(item.Targets) == 0 {
			tasks = append(tasks, executionTask{question: item.Question, strategy: item.Strategy})
			continue
		}
		for _, target := range item.Targets {
			tasks = append(tasks, executionTask{
				question: item.Question,
				strategy: item.Strategy,
				target:   target,
			})
		}
	}
	return tasks
}

// orderedResults fills the slots of tasks that never ran (cancelled before
// dispatch) with degraded markers so positions still line up with the plan.
func orderedResults(results []domain.PartialAnswer, tasks []executionTask) []domain.PartialAnswer {
	for i := range results {
		if results[i].Text == "" {
			results[i] = domain.PartialAnswer{
				Question: tasks[i].question,
				Source:   tasks[i].target,
				Text:     "Execution was cancelled before this sub-question ran.",
				Degraded: true,
			}
		}
	}
	return results
}
