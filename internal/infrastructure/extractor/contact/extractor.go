// Package contact recovers the responsible department and phone number
// of a document from its text layer, falling back to OCR of the first
// page.
package contact

import (
	"context"
	"log/slog"
	"strings"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/ports"
)

const DefaultScale = 3.0

type Options struct {
	Strategies []Strategy
	Scale      float64
	Languages  []string
}

type Extractor struct {
	renderer   ports.PageRenderer
	recognizer ports.Recognizer
	strategies []Strategy
	scale      float64
	languages  []string
	logger     *slog.Logger
}

// New builds an extractor. renderer and recognizer may be nil, which
// disables the OCR fallback.
func New(renderer ports.PageRenderer, recognizer ports.Recognizer, opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	languages := opts.Languages
	if len(languages) == 0 {
		languages = []string{"kor", "eng"}
	}
	return &Extractor{
		renderer:   renderer,
		recognizer: recognizer,
		strategies: strategies,
		scale:      scale,
		languages:  languages,
		logger:     logger,
	}
}

// Extract never fails. The text layer is searched first; OCR of the
// first page only runs when no phone number was found there.
func (e *Extractor) Extract(ctx context.Context, path, text string) domain.ContactInfo {
	info, strategy := Apply(e.strategies, text)
	if info.Phone != "" {
		e.logger.Debug("contact_found", "path", path, "source", "text", "strategy", strategy)
		return withSentinel(info)
	}

	ocrText, ok := e.recognizeFirstPage(ctx, path)
	if !ok {
		return withSentinel(info)
	}
	ocrInfo, strategy := Apply(e.strategies, ocrText)
	if ocrInfo.Phone != "" {
		e.logger.Debug("contact_found", "path", path, "source", "ocr", "strategy", strategy)
	}
	if info.Department == "" {
		info.Department = ocrInfo.Department
	}
	info.Phone = ocrInfo.Phone
	return withSentinel(info)
}

func (e *Extractor) recognizeFirstPage(ctx context.Context, path string) (string, bool) {
	if e.renderer == nil || e.recognizer == nil {
		return "", false
	}
	image, err := e.renderer.RenderPage(ctx, path, 0, e.scale)
	if err != nil {
		e.logger.Warn("contact_render_failed", "path", path, "error", err)
		return "", false
	}
	text, err := e.recognizer.Recognize(ctx, image, e.languages)
	if err != nil {
		e.logger.Warn("contact_ocr_failed", "path", path, "error", err)
		return "", false
	}
	return text, true
}

// Apply runs strategies in order. The first strategy to supply a field
// wins that field; the name of the strategy that supplied the phone is
// returned.
func Apply(strategies []Strategy, text string) (domain.ContactInfo, string) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		info    domain.ContactInfo
		matched string
	)
	for _, strategy := range strategies {
		match, ok := strategy.Find(lines)
		if !ok {
			continue
		}
		if info.Department == "" && match.Department != "" {
			info.Department = match.Department
		}
		if info.Phone == "" && match.Phone != "" {
			info.Phone = match.Phone
			matched = strategy.Name
		}
		if info.Department != "" && info.Phone != "" {
			break
		}
	}
	return info, matched
}

func withSentinel(info domain.ContactInfo) domain.ContactInfo {
	if strings.TrimSpace(info.Department) == "" {
		info.Department = domain.UnassignedDepartment
	}
	return info
}
