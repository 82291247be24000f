// Package pdftext reads the embedded text layer of PDF files.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

const minFileBytes = 100

type Options struct {
	// MaxPages limits extraction to the first pages; zero reads all.
	MaxPages int
	// MinChars is the cleaned length below which a document counts as
	// having no text layer.
	MinChars     int
	StripSymbols bool
	// PageCounter reads the page tree before text extraction. Defaults to
	// pdfcpu.
	PageCounter func(path string) (int, error)
}

type Extractor struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PageCounter == nil {
		opts.PageCounter = api.PageCountFile
	}
	return &Extractor{opts: opts, logger: logger}
}

type preflight struct {
	pages int
	err   error
}

// Extract returns the cleaned text of path. Files that are missing, too
// small, have an empty page tree, or that neither the preflight nor the
// text reader can open fail with ErrInvalidInput. A text layer shorter
// than MinChars yields an empty result without error.
func (e *Extractor) Extract(ctx context.Context, path string) (domain.ExtractedText, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "stat pdf", err)
	}
	if info.Size() < minFileBytes {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "stat pdf", fmt.Errorf("file too small: %d bytes", info.Size()))
	}

	pf := preflight{}
	pf.pages, pf.err = e.opts.PageCounter(path)
	switch {
	case pf.err != nil:
		e.logger.Warn("pdf_preflight_failed", "path", path, "error", pf.err)
	case pf.pages == 0:
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "preflight pdf", errors.New("document has no pages"))
	default:
		e.logger.Debug("pdf_preflight", "path", path, "pages", pf.pages)
	}

	pages, pageCount, err := e.readPages(ctx, path, pf)
	if err != nil {
		return domain.ExtractedText{}, err
	}

	text := Clean(strings.Join(pages, "\n"), e.opts.StripSymbols)
	chars := utf8.RuneCountInString(text)
	if chars < e.opts.MinChars {
		e.logger.Warn("pdf_text_below_threshold", "path", path, "chars", chars, "min_chars", e.opts.MinChars)
		return domain.ExtractedText{PageCount: pageCount}, nil
	}
	return domain.ExtractedText{Text: text, PageCount: pageCount, CharCount: chars}, nil
}

// readPages reports the preflight page count when the preflight
// succeeded and reads at most that many pages.
func (e *Extractor) readPages(ctx context.Context, path string, pf preflight) (pages []string, total int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrInvalidInput, "open pdf", fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		if pf.err != nil {
			err = errors.Join(err, fmt.Errorf("preflight: %w", pf.err))
		}
		return nil, 0, domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}
	defer f.Close()

	readable := r.NumPage()
	total = readable
	if pf.err == nil {
		total = pf.pages
		readable = min(readable, pf.pages)
	}
	if total == 0 {
		return nil, 0, domain.WrapError(domain.ErrInvalidInput, "open pdf", errors.New("document has no pages"))
	}
	limit := readable
	if e.opts.MaxPages > 0 && e.opts.MaxPages < limit {
		limit = e.opts.MaxPages
	}

	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			return nil, total, err
		}
		text, err := pageText(r, i, fonts)
		if err != nil {
			e.logger.Warn("pdf_page_skipped", "path", path, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}
	return pages, total, nil
}

// pageText isolates one page so a broken content stream only costs that
// page.
func pageText(r *pdf.Reader, index int, fonts map[string]*pdf.Font) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", index, rec)
		}
	}()

	page := r.Page(index)
	if page.V.IsNull() {
		return "", nil
	}
	for _, name := range page.Fonts() {
		if _, ok := fonts[name]; !ok {
			font := page.Font(name)
			fonts[name] = &font
		}
	}
	return page.GetPlainText(fonts)
}

var (
	blankRuns  = regexp.MustCompile(`\n\s*\n`)
	spaceRuns  = regexp.MustCompile(`[ \t]+`)
	lineIndent = regexp.MustCompile(`\n[ \t]+`)
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,()\[\]{}!?%\-]`)
)

// Clean normalizes whitespace and, when stripSymbols is set, removes
// every character outside letters, digits and basic punctuation.
func Clean(text string, stripSymbols bool) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = lineIndent.ReplaceAllString(text, "\n")
	if stripSymbols {
		text = disallowed.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
