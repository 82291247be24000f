package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/frontmatter"
	"github.com/kirillkom/civic-digest/internal/core/naming"
	"github.com/kirillkom/civic-digest/internal/core/ports"
)

const reportedFailures = 5

// errAlreadyConverted short-circuits the pipeline for documents that
// already have an output. errPrechecked marks the ones recognized before
// any extraction or completion was spent on them.
var (
	errAlreadyConverted = errors.New("already converted")
	errPrechecked       = fmt.Errorf("source pdf %w", errAlreadyConverted)
)

type ProcessDocumentUseCase struct {
	inbox      ports.SourceInbox
	catalog    ports.SourceCatalog
	extractor  ports.TextExtractor
	contacts   ports.ContactExtractor
	summarizer *Summarizer
	gate       *DedupGate
	store      ports.DocumentStore
	observer   ports.BatchObserver
	profile    domain.Profile
	logger     *slog.Logger
	now        func() time.Time
}

type ProcessDeps struct {
	Inbox      ports.SourceInbox
	Catalog    ports.SourceCatalog
	Extractor  ports.TextExtractor
	Contacts   ports.ContactExtractor
	Summarizer *Summarizer
	Gate       *DedupGate
	Store      ports.DocumentStore
	Observer   ports.BatchObserver
}

func NewProcessDocumentUseCase(deps ProcessDeps, profile domain.Profile, logger *slog.Logger) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		inbox:      deps.Inbox,
		catalog:    deps.Catalog,
		extractor:  deps.Extractor,
		contacts:   deps.Contacts,
		summarizer: deps.Summarizer,
		gate:       deps.Gate,
		store:      deps.Store,
		observer:   deps.Observer,
		profile:    profile,
		logger:     logger,
		now:        time.Now,
	}
}

// Run converts the PDFs of the inbox one after another. Per-document
// failures are counted and skipped; configuration errors and
// cancellation stop the batch.
func (uc *ProcessDocumentUseCase) Run(ctx context.Context, opts domain.RunOptions) (domain.BatchReport, error) {
	var report domain.BatchReport

	sources, err := uc.inbox.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list source pdfs: %w", err)
	}
	uc.logger.Info("batch_started", "profile", uc.profile.Name, "documents", len(sources), "limit", opts.Limit, "force", opts.Force)

	if err := ctx.Err(); err != nil {
		uc.finish(report)
		return report, err
	}
	// Limit counts attempted documents, so repeated limited runs move
	// past outputs that already exist.
	attempted := 0
	for _, src := range sources {
		if opts.Limit > 0 && attempted >= opts.Limit {
			break
		}
		result := uc.Process(ctx, uc.enrich(ctx, src), opts)
		if result.Attempted {
			attempted++
		}
		report.Add(result)
		if uc.observer != nil {
			uc.observer.ObserveDocument(result)
		}
		if result.Error != nil && !domain.IsSkippable(result.Error) {
			uc.finish(report)
			return report, result.Error
		}
		if err := ctx.Err(); err != nil {
			uc.finish(report)
			return report, err
		}
	}

	uc.finish(report)
	return report, nil
}

// Process runs one PDF through the pipeline. It never panics on bad
// input; the outcome is carried in the result.
func (uc *ProcessDocumentUseCase) Process(ctx context.Context, src domain.SourceDocument, opts domain.RunOptions) domain.DocumentResult {
	start := uc.now()
	result := domain.DocumentResult{Filename: src.Filename}

	path, err := uc.processPipeline(ctx, src, opts)
	result.Duration = uc.now().Sub(start)
	result.Attempted = !errors.Is(err, errPrechecked)
	switch {
	case errors.Is(err, errAlreadyConverted):
		result.Status = domain.StatusExisting
		result.OutputPath = path
		uc.logger.Info("document_existing", "pdf", src.Filename, "output", path)
	case err != nil:
		result.Status = domain.StatusSkipped
		result.Error = err
		uc.logger.Warn("document_skipped", "pdf", src.Filename, "error", err)
	default:
		result.Status = domain.StatusProcessed
		result.OutputPath = path
		uc.logger.Info("document_processed", "pdf", src.Filename, "output", path, "duration_ms", result.Duration.Milliseconds())
	}
	return result
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, src domain.SourceDocument, opts domain.RunOptions) (string, error) {
	if !opts.Force {
		existing, err := uc.gate.Check(ctx, src)
		if err != nil {
			return "", fmt.Errorf("check existing outputs: %w", err)
		}
		if existing != "" {
			return existing, errPrechecked
		}
	}

	text, err := uc.extractText(ctx, src)
	if err != nil {
		return "", err
	}

	doc, err := uc.summarize(ctx, src, text)
	if err != nil {
		return "", err
	}

	if uc.profile.ExtractContact && uc.contacts != nil {
		info := uc.contacts.Extract(ctx, src.Path, text.Text)
		doc.Body = MergeContact(doc.Body, info)
	}

	name := naming.Filename(doc.Metadata, naming.Options{
		FallbackTitle: uc.profile.FallbackTitle,
		DefaultTag:    uc.profile.Taxonomy.DefaultTag,
		Now:           uc.now,
	})
	if !opts.Force {
		if existing, same := uc.gate.CheckTitle(ctx, name, doc.Metadata.Title); same {
			return existing, errAlreadyConverted
		}
	}

	return uc.persist(ctx, name, doc)
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, src domain.SourceDocument) (domain.ExtractedText, error) {
	text, err := uc.extractor.Extract(ctx, src.Path)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("extract text: %w", err)
	}
	if text.Empty() {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("no usable text layer"))
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) summarize(ctx context.Context, src domain.SourceDocument, text domain.ExtractedText) (*domain.SummaryDocument, error) {
	sc := SummaryContext{
		SourceURL:    src.DiscoveredURL,
		SourcePDF:    src.Filename,
		FallbackDate: src.DiscoveredDate,
	}
	if uc.profile.ParseDepartment {
		sc.Department = uc.profile.DepartmentFromFilename(src.Filename)
	}

	doc, err := uc.summarizer.Summarize(ctx, text.Text, sc)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) persist(ctx context.Context, name string, doc *domain.SummaryDocument) (string, error) {
	content := frontmatter.Serialize(doc.Metadata, doc.Body)
	path, err := uc.store.Write(ctx, name, []byte(content))
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "write markdown", err)
	}
	uc.gate.Remember(name, path, doc.Metadata)
	return path, nil
}

// enrich joins crawler metadata onto a PDF found in the inbox.
func (uc *ProcessDocumentUseCase) enrich(ctx context.Context, src domain.SourceDocument) domain.SourceDocument {
	if uc.catalog == nil {
		return src
	}
	found, ok := uc.catalog.Lookup(ctx, src.Filename)
	if !ok {
		return src
	}
	if src.DiscoveredURL == "" {
		src.DiscoveredURL = found.DiscoveredURL
	}
	if src.DiscoveredTitle == "" {
		src.DiscoveredTitle = found.DiscoveredTitle
	}
	if src.DiscoveredDate == "" {
		if date, ok := frontmatter.NormalizeDate(found.DiscoveredDate); ok {
			src.DiscoveredDate = date
		}
	}
	return src
}

func (uc *ProcessDocumentUseCase) finish(report domain.BatchReport) {
	uc.logger.Info("batch_completed",
		"profile", uc.profile.Name,
		"total", report.Total,
		"processed", report.Processed,
		"existing", report.Existing,
		"skipped", report.Skipped,
		"failed_sample", sample(report.Failed, reportedFailures),
	)
	if uc.observer != nil {
		uc.observer.ObserveBatch(report)
	}
}

// MergeContact appends the contact line to body unless the body already
// quotes the same phone number.
func MergeContact(body string, info domain.ContactInfo) string {
	if info.Phone != "" && strings.Contains(body, info.Phone) {
		return body
	}
	line := "**문의**: " + info.Format()
	if strings.Contains(body, line) {
		return body
	}
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return line + "\n"
	}
	return body + "\n\n" + line + "\n"
}
