package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanInvalid means the planner output failed schema validation or
	// referenced an unknown document. Fatal for the question.
	ErrPlanInvalid = errors.New("plan validation failed")
	// ErrRetrieval is a single-target backend failure. Recovered locally by
	// substituting a degraded partial answer.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrLLMCall is a language model provider failure.
	ErrLLMCall = errors.New("llm call failed")
	// ErrAggregation means the final synthesis call failed. Fatal.
	ErrAggregation = errors.New("aggregation failed")

	ErrJobNotFound  = errors.New("job not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
