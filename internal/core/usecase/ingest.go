package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vhsingh/jobs-qa/internal/core/domain"
	"github.com/vhsingh/jobs-qa/internal/core/ports"
)

// RefreshCorpusUseCase rebuilds the corpus end to end: fetch postings from
// the upstream source, persist them, re-chunk and re-embed everything into
// the unified vector index, then export a snapshot workbook.
type RefreshCorpusUseCase struct {
	source     ports.JobSource
	repo       ports.JobRepository
	chunker    ports.Chunker
	embedder   ports.Embedder
	index      ports.VectorIndex
	exporter   ports.CorpusExporter
	exportPath string
}

func NewRefreshCorpusUseCase(
	source ports.JobSource,
	repo ports.JobRepository,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.VectorIndex,
	exporter ports.CorpusExporter,
	exportPath string,
) *RefreshCorpusUseCase {
	return &RefreshCorpusUseCase{
		source:     source,
		repo:       repo,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		exporter:   exporter,
		exportPath: exportPath,
	}
}

func (uc *RefreshCorpusUseCase) Refresh(ctx context.Context) (*domain.RefreshReport, error) {
	start := time.Now()

	jobs, err := uc.source.FetchPostings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch postings: %w", err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("source returned no postings")
	}

	if err := uc.repo.UpsertJobs(ctx, jobs); err != nil {
		return nil, fmt.Errorf("store postings: %w", err)
	}

	if err := uc.index.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset vector index: %w", err)
	}

	totalChunks := 0
	for _, job := range jobs {
		chunks := domain.ChunkPosting(job, uc.chunker.Split)
		if len(chunks) == 0 {
			slog.Warn("posting_has_no_chunks", "doc_name", job.DocName)
			continue
		}

		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks for %s: %w", job.DocName, err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embeddings for %s: got %d vectors for %d chunks", job.DocName, len(vectors), len(chunks))
		}

		if err := uc.index.IndexChunks(ctx, chunks, vectors); err != nil {
			return nil, fmt.Errorf("index chunks for %s: %w", job.DocName, err)
		}
		totalChunks += len(chunks)
	}

	report := &domain.RefreshReport{
		Jobs:     len(jobs),
		Chunks:   totalChunks,
		Duration: time.Since(start),
	}

	if uc.exporter != nil && uc.exportPath != "" {
		if err := uc.exporter.Export(ctx, jobs, uc.exportPath); err != nil {
			// The index is already rebuilt; a failed snapshot is not fatal.
			slog.Warn("corpus_export_failed", "path", uc.exportPath, "error", err)
		} else {
			report.Exported = uc.exportPath
		}
	}

	slog.Info("corpus_refreshed",
		"jobs", report.Jobs,
		"chunks", report.Chunks,
		"duration_ms", float64(report.Duration.Microseconds())/1000.0,
	)
	return report, nil
}
