package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/frontmatter"
	"github.com/kirillkom/civic-digest/internal/core/ports"
	"github.com/kirillkom/civic-digest/internal/core/prompt"
)

// SourceURLPlaceholder is what the model writes when it has no URL.
const SourceURLPlaceholder = "원문_URL_여기_입력"

var placeholderPattern = regexp.MustCompile(`^\{[a-z_]+\}$`)

// SummaryContext carries what the caller knows about the document.
type SummaryContext struct {
	SourceURL    string
	SourcePDF    string
	Department   string
	FallbackDate string
}

type SummarizerConfig struct {
	MaxTokens   int
	Temperature float64
}

// Summarizer turns extracted text into a validated summary document with
// exactly one completion call.
type Summarizer struct {
	completer ports.Completer
	pacer     ports.Pacer
	prompts   *prompt.Template
	codec     *frontmatter.Codec
	profile   domain.Profile
	cfg       SummarizerConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewSummarizer(
	completer ports.Completer,
	pacer ports.Pacer,
	prompts *prompt.Template,
	codec *frontmatter.Codec,
	profile domain.Profile,
	cfg SummarizerConfig,
	logger *slog.Logger,
) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		completer: completer,
		pacer:     pacer,
		prompts:   prompts,
		codec:     codec,
		profile:   profile,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Summarize fails with a skippable error when the call fails or the reply
// cannot be parsed; the caller skips the document.
func (s *Summarizer) Summarize(ctx context.Context, text string, sc SummaryContext) (*domain.SummaryDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "summarize", errors.New("empty text"))
	}
	sourceURL := sc.SourceURL
	if isPlaceholder(sourceURL) {
		sourceURL = s.profile.DefaultSourceURL
	}
	category := s.category(sc.Department)

	system, user, err := s.prompts.Render(prompt.Data{
		Content:        truncateRunes(text, s.profile.PromptBudget),
		SourceURL:      sourceURL,
		SourcePDF:      sc.SourcePDF,
		Department:     sc.Department,
		Category:       category,
		Year:           s.year(sc.FallbackDate),
		Tags:           s.profile.Taxonomy.Tags,
		Departments:    s.profile.Departments,
		ThumbnailRunes: s.profile.ThumbnailRunes,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "render prompt", err)
	}

	raw, err := s.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	doc, ok := s.codec.Parse(StripFormatDrift(raw))
	if !ok {
		return nil, domain.WrapError(domain.ErrMalformedReply, "parse summary", errors.New("frontmatter delimiters missing"))
	}
	for _, repair := range s.codec.Repair(&doc, sc.FallbackDate) {
		s.logger.Debug("frontmatter_repaired", "source_pdf", sc.SourcePDF, "field", repair.Field, "detail", repair.Detail)
	}

	s.applyCallerValues(&doc, sourceURL, sc)
	if s.profile.ParseDepartment {
		s.applyDepartment(&doc, sc.Department, category)
	}
	return &doc, nil
}

func (s *Summarizer) complete(ctx context.Context, system, user string) (string, error) {
	if s.pacer != nil {
		if err := s.pacer.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for completion slot: %w", err)
		}
	}
	raw, err := s.completer.Complete(ctx, ports.CompletionRequest{
		System:      system,
		User:        user,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("complete summary: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", domain.WrapError(domain.ErrMalformedReply, "complete summary", errors.New("empty reply"))
	}
	return raw, nil
}

func (s *Summarizer) applyCallerValues(doc *domain.SummaryDocument, sourceURL string, sc SummaryContext) {
	if isPlaceholder(doc.Metadata.SourceURL) {
		doc.Metadata.SourceURL = sourceURL
	}
	if sourceURL != "" {
		doc.Body = strings.ReplaceAll(doc.Body, SourceURLPlaceholder, sourceURL)
		doc.Body = strings.ReplaceAll(doc.Body, "{source_url}", sourceURL)
	}
	// The embedded identifier must be the exact file name for dedup.
	if sc.SourcePDF != "" {
		doc.Metadata.SourcePDF = sc.SourcePDF
	}
}

// applyDepartment makes the department table, not the model, decide the
// tag of a work plan.
func (s *Summarizer) applyDepartment(doc *domain.SummaryDocument, department, category string) {
	if department != "" {
		doc.Metadata.Department = department
	}
	if category == "" || !s.profile.Taxonomy.Contains(category) {
		return
	}
	if doc.Metadata.PrimaryTag() != category {
		s.logger.Info("tag_overridden_by_department", "department", department, "model_tag", doc.Metadata.PrimaryTag(), "tag", category)
	}
	doc.Metadata.Tags = []string{category}
}

func (s *Summarizer) category(department string) string {
	if len(s.profile.Departments) == 0 || department == "" {
		return ""
	}
	return domain.CategoryForDepartment(s.profile.Departments, department, s.profile.Taxonomy.DefaultTag)
}

var leadingYear = regexp.MustCompile(`^\d{4}`)

func (s *Summarizer) year(date string) string {
	if y := leadingYear.FindString(strings.TrimSpace(date)); y != "" {
		return y
	}
	if y := leadingYear.FindString(s.profile.Defaults.Date); y != "" {
		return y
	}
	return s.now().Format("2006")
}

var fenceLine = regexp.MustCompile("^\\s*```[A-Za-z]*\\s*$")

// StripFormatDrift removes markdown code fences and any chatter before
// the first "---" line.
func StripFormatDrift(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if fenceLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	for i, line := range kept {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(kept[i:], "\n")
		}
	}
	return strings.Join(kept, "\n")
}

func isPlaceholder(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" ||
		strings.Contains(value, SourceURLPlaceholder) ||
		placeholderPattern.MatchString(value)
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
