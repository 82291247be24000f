package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/kirillkom/civic-digest/internal/config"
	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/frontmatter"
	"github.com/kirillkom/civic-digest/internal/core/ports"
	"github.com/kirillkom/civic-digest/internal/core/prompt"
	"github.com/kirillkom/civic-digest/internal/core/usecase"
	"github.com/kirillkom/civic-digest/internal/infrastructure/catalog/manifest"
	"github.com/kirillkom/civic-digest/internal/infrastructure/crawler/command"
	"github.com/kirillkom/civic-digest/internal/infrastructure/extractor/contact"
	"github.com/kirillkom/civic-digest/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/civic-digest/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/civic-digest/internal/infrastructure/llm/openai"
	"github.com/kirillkom/civic-digest/internal/infrastructure/ocr/fitz"
	"github.com/kirillkom/civic-digest/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/civic-digest/internal/infrastructure/ratelimit"
	"github.com/kirillkom/civic-digest/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/civic-digest/internal/infrastructure/resilience"
	"github.com/kirillkom/civic-digest/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/civic-digest/internal/observability/metrics"
)

const defaultOllamaURL = "http://localhost:11434"

type App struct {
	Config  config.Config
	Profile domain.Profile
	Logger  *slog.Logger

	Pipeline  *usecase.PipelineUseCase
	ProcessUC *usecase.ProcessDocumentUseCase
	Inventory *usecase.InventoryUseCase
	Metrics   *metrics.BatchMetrics
}

// New validates cfg and wires the pipeline. Every error it returns is a
// configuration error; no document has been touched yet.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := cfg.DocumentProfile()
	if err != nil {
		return nil, err
	}
	paths := cfg.PromptPaths()
	prompts, err := prompt.Load(profile.Name, prompt.Overrides{SystemPath: paths.System, UserPath: paths.User})
	if err != nil {
		return nil, err
	}

	store, err := localfs.New(cfg.OutputDir)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "init output store", err)
	}
	inbox := localfs.NewInbox(cfg.InputDir)
	catalog := manifest.New(cfg.CrawlManifest, logger)
	codec := frontmatter.New(profile)
	batchMetrics := metrics.NewBatchMetrics(profile.Name)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		BreakerEnabled:      cfg.BreakerEnabled,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
	}, logger)
	completer, err := newCompleter(cfg, executor)
	if err != nil {
		return nil, err
	}

	summarizer := usecase.NewSummarizer(
		batchMetrics.InstrumentCompleter(completer),
		ratelimit.NewPacer(cfg.CallDelay),
		prompts,
		codec,
		profile,
		usecase.SummarizerConfig{MaxTokens: cfg.LLMMaxTokens, Temperature: cfg.LLMTemperature},
		logger,
	)

	var contacts ports.ContactExtractor
	if profile.ExtractContact {
		opts := contact.Options{Scale: cfg.ContactOCRScale, Languages: cfg.ContactOCRLanguages}
		if cfg.ContactOCREnabled {
			recognizer := tesseract.NewRecognizer(tesseract.Options{ResilienceExecutor: executor})
			contacts = contact.New(fitz.NewRenderer(), recognizer, opts, logger)
		} else {
			contacts = contact.New(nil, nil, opts, logger)
		}
	}

	extractor := pdftext.New(pdftext.Options{
		MaxPages:     profile.MaxPages,
		MinChars:     profile.MinChars,
		StripSymbols: cfg.StripSymbols,
	}, logger)

	gate := usecase.NewDedupGate(store, codec, logger,
		usecase.SourcePDFMatcher{},
		usecase.SimilarityMatcher{Threshold: cfg.SimilarityThreshold},
	)

	processUC := usecase.NewProcessDocumentUseCase(usecase.ProcessDeps{
		Inbox:      inbox,
		Catalog:    catalog,
		Extractor:  extractor,
		Contacts:   contacts,
		Summarizer: summarizer,
		Gate:       gate,
		Store:      store,
		Observer:   batchMetrics,
	}, profile, logger)

	var crawler ports.Crawler
	if cfg.CrawlerCommand != "" {
		crawler = command.New(cfg.CrawlerCommand, cfg.CrawlerArgs, cfg.CrawlerDir, logger)
	}

	inventoryUC := usecase.NewInventoryUseCase(inbox, catalog, store, codec, xlsx.New(logger), profile, logger)

	logger.Info("pipeline_configured",
		"profile", profile.Name,
		"provider", cfg.LLMProvider,
		"model", cfg.LLMModel,
		"prompt_version", prompt.Version,
		"input_dir", cfg.InputDir,
		"output_dir", cfg.OutputDir,
		"call_delay", cfg.CallDelay.String(),
	)

	return &App{
		Config:    cfg,
		Profile:   profile,
		Logger:    logger,
		Pipeline:  usecase.NewPipelineUseCase(crawler, processUC, logger),
		ProcessUC: processUC,
		Inventory: inventoryUC,
		Metrics:   batchMetrics,
	}, nil
}

func newCompleter(cfg config.Config, executor *resilience.Executor) (ports.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return openai.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, openai.Options{
			Timeout:            cfg.LLMTimeout,
			ResilienceExecutor: executor,
		}), nil
	case config.ProviderOllama:
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = defaultOllamaURL
		}
		return ollama.New(baseURL, cfg.LLMModel, ollama.Options{
			Timeout:            cfg.LLMTimeout,
			ResilienceExecutor: executor,
		}), nil
	default:
		return nil, domain.WrapError(domain.ErrConfig, "select llm provider", fmt.Errorf("unknown provider %q", cfg.LLMProvider))
	}
}

// Flush writes the metrics textfile when one is configured.
func (a *App) Flush() error {
	if a.Config.MetricsTextfile == "" {
		return nil
	}
	return a.Metrics.WriteTextfile(a.Config.MetricsTextfile)
}
