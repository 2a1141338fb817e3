package config

import "testing"

func TestLoadIncludesPipelineDefaults(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "")
	t.Setenv("EXECUTOR_MAX_PARALLEL", "")
	t.Setenv("LLM_RATE_LIMIT_RPS", "")
	t.Setenv("TASK_CONTEXT", "")
	t.Setenv("NATS_SUBJECT", "")

	cfg := Load()
	if cfg.RetrievalTopK != 3 {
		t.Fatalf("expected default top k 3, got %d", cfg.RetrievalTopK)
	}
	if cfg.ExecutorMaxParallel != 4 {
		t.Fatalf("expected default max parallel 4, got %d", cfg.ExecutorMaxParallel)
	}
	if cfg.LLMRateLimitRPS != 5 {
		t.Fatalf("expected default rate limit 5, got %v", cfg.LLMRateLimitRPS)
	}
	if cfg.TaskContext != DefaultTaskContext {
		t.Fatalf("expected default task context, got %q", cfg.TaskContext)
	}
	if cfg.NATSSubject != "corpus.refresh" {
		t.Fatalf("expected default nats subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadParsesPipelineOverrides(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("EXECUTOR_MAX_PARALLEL", "8")
	t.Setenv("LLM_RATE_LIMIT_RPS", "2.5")
	t.Setenv("TASK_CONTEXT", "custom corpus description")

	cfg := Load()
	if cfg.RetrievalTopK != 5 {
		t.Fatalf("expected top k 5, got %d", cfg.RetrievalTopK)
	}
	if cfg.ExecutorMaxParallel != 8 {
		t.Fatalf("expected max parallel 8, got %d", cfg.ExecutorMaxParallel)
	}
	if cfg.LLMRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit 2.5, got %v", cfg.LLMRateLimitRPS)
	}
	if cfg.TaskContext != "custom corpus description" {
		t.Fatalf("expected task context override, got %q", cfg.TaskContext)
	}
}

func TestLoadFallsBackOnUnparsableNumbers(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "not-a-number")
	t.Setenv("LLM_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.RetrievalTopK != 3 {
		t.Fatalf("expected fallback top k 3, got %d", cfg.RetrievalTopK)
	}
	if cfg.LLMRateLimitRPS != 5 {
		t.Fatalf("expected fallback rate limit 5, got %v", cfg.LLMRateLimitRPS)
	}
}
