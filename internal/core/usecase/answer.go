package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
)

// AnswerQuestionUseCase drives the full pipeline for one question:
// plan -> execute -> aggregate, with a request-scoped cost ledger. Planning
// and aggregation failures are fatal for the request; per-target execution
// failures degrade without aborting.
type AnswerQuestionUseCase struct {
	planner    *PlannerUseCase
	executor   *ExecutorUseCase
	aggregator *AggregatorUseCase
}

func NewAnswerQuestionUseCase(planner *PlannerUseCase, executor *ExecutorUseCase, aggregator *AggregatorUseCase) *AnswerQuestionUseCase {
	return &AnswerQuestionUseCase{
		planner:    planner,
		executor:   executor,
		aggregator: aggregator,
	}
}

func (uc *AnswerQuestionUseCase) AnswerQuestion(
	ctx context.Context,
	question string,
	taskContext string,
	validDocs []string,
) (*domain.Answer, error) {
	start := time.Now()
	state := domain.StateReceived
	ledger := domain.NewCostLedger()

	fail := func(err error) (*domain.Answer, error) {
		return &domain.Answer{
			TotalCost: ledger.Total(),
			State:     domain.StateFailed,
		}, err
	}

	if strings.TrimSpace(question) == "" {
		return fail(domain.WrapError(domain.ErrInvalidInput, "answer question", fmt.Errorf("question is required")))
	}
	if len(validDocs) == 0 {
		return fail(domain.WrapError(domain.ErrInvalidInput, "answer question", fmt.Errorf("no valid documents supplied")))
	}

	plan, planCost, err := uc.planner.Plan(ctx, question, taskContext, validDocs)
	ledger.Add(planCost)
	if err != nil {
		return fail(err)
	}
	state = domain.StatePlanned
	slog.Info("question_planned",
		"state", string(state),
		"subquestions", len(plan.Items),
		"cost", planCost,
	)

	state = domain.StateExecuting
	partials, err := uc.executor.Execute(ctx, plan, ledger)
	if err != nil {
		return fail(domain.WrapError(domain.ErrRetrieval, "execute plan", err))
	}
	slog.Debug("plan_executed", "state", string(state), "partials", len(partials))

	finalText, aggCost, err := uc.aggregator.Aggregate(ctx, question, partials)
	ledger.Add(aggCost)
	if err != nil {
		// Partial answers are still returned alongside the failure.
		answer, _ := fail(err)
		answer.Partials = partials
		return answer, err
	}
	state = domain.StateAggregated
	slog.Debug("answers_aggregated", "state", string(state), "cost", aggCost)

	state = domain.StateDone
	slog.Info("question_answered",
		"state", string(state),
		"subquestions", len(plan.Items),
		"partials", len(partials),
		"total_cost", ledger.Total(),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	return &domain.Answer{
		FinalAnswer: finalText,
		TotalCost:   ledger.Total(),
		Partials:    partials,
		State:       state,
	}, nil
}
