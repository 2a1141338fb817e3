package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/vhsingh/jobs-qa/internal/config"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
	"github.com/vhsingh/jobs-qa/internal/core/usecase"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/chunking"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/export/xlsx"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/extractor/resumepdf"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/llm/openai"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/queue/nats"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/repository/postgres"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/resilience"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/retrieval"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/scraper/lever"
	"github.com/vhsingh/jobs-qa/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.JobRepository
	Extractor ports.ResumeExtractor

	AnswerUC  ports.QuestionAnswerer
	MatchUC   ports.JobMatcher
	RefreshUC ports.CorpusIngestor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pricing, err := openai.LoadPricing(cfg.PricingFile)
	if err != nil {
		return nil, fmt.Errorf("load pricing: %w", err)
	}
	llmClient := openai.New(
		cfg.OpenAIBaseURL,
		cfg.OpenAIAPIKey,
		cfg.OpenAIGenModel,
		cfg.OpenAIEmbedModel,
		openai.WithRateLimit(cfg.LLMRateLimitRPS),
		openai.WithResilience(executor),
		openai.WithPricing(pricing),
	)
	embedder := openai.NewEmbedder(llmClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	backend := retrieval.New(embedder, vectorDB, repo)

	planner := usecase.NewPlannerUseCase(llmClient)
	planExecutor := usecase.NewExecutorUseCase(
		backend,
		llmClient,
		cfg.RetrievalTopK,
		cfg.ExecutorMaxParallel,
		time.Duration(cfg.LLMTimeoutSec)*time.Second,
	)
	aggregator := usecase.NewAggregatorUseCase(llmClient)
	answerUC := usecase.NewAnswerQuestionUseCase(planner, planExecutor, aggregator)

	matchUC := usecase.NewMatchJobsUseCase(embedder, vectorDB, cfg.MatchCandidates)

	source := lever.New(cfg.LeverPostingsURL)
	exporter := xlsx.New()
	refreshUC := usecase.NewRefreshCorpusUseCase(source, repo, chunker, embedder, vectorDB, exporter, cfg.CorpusExportPath)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		Extractor: resumepdf.New(),

		AnswerUC:  answerUC,
		MatchUC:   matchUC,
		RefreshUC: refreshUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
