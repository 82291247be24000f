package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/ports"
)

// PipelineUseCase runs the crawl stage followed by the batch conversion.
type PipelineUseCase struct {
	crawler ports.Crawler
	batch   ports.BatchRunner
	logger  *slog.Logger
}

// NewPipelineUseCase accepts a nil crawler; the crawl stage is then
// skipped with a warning.
func NewPipelineUseCase(crawler ports.Crawler, batch ports.BatchRunner, logger *slog.Logger) *PipelineUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineUseCase{crawler: crawler, batch: batch, logger: logger}
}

// Run executes the stages selected by opts. A failed crawl in a full run
// only means fewer new PDFs, so conversion still proceeds.
func (uc *PipelineUseCase) Run(ctx context.Context, opts domain.RunOptions) (domain.BatchReport, error) {
	if !opts.SummarizeOnly {
		if err := uc.crawl(ctx, opts.MaxPages); err != nil {
			if opts.CrawlOnly || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return domain.BatchReport{}, err
			}
			uc.logger.Warn("crawl_failed_continuing", "error", err)
		}
	}
	if opts.CrawlOnly {
		return domain.BatchReport{}, nil
	}
	return uc.batch.Run(ctx, opts)
}

func (uc *PipelineUseCase) crawl(ctx context.Context, maxPages int) error {
	if uc.crawler == nil {
		return domain.WrapError(domain.ErrConfig, "crawl", errors.New("no crawler command configured"))
	}
	return uc.crawler.Crawl(ctx, maxPages)
}
