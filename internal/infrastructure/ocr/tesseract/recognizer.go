// Package tesseract recognizes text in page images with Tesseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/infrastructure/resilience"
)

var DefaultLanguages = []string{"kor", "eng"}

type Recognizer struct {
	executor *resilience.Executor
}

type Options struct {
	ResilienceExecutor *resilience.Executor
}

func NewRecognizer(options Options) *Recognizer {
	return &Recognizer{executor: options.ResilienceExecutor}
}

// Recognize runs one OCR pass. A client is created per call because
// gosseract clients must not be shared between goroutines.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	if len(image) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "ocr", fmt.Errorf("empty image"))
	}
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	call := func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set ocr languages %v: %w", languages, err)
		}
		if err := client.SetImageFromBytes(image); err != nil {
			return "", fmt.Errorf("load ocr image: %w", err)
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("recognize text: %w", err)
		}
		return strings.TrimSpace(text), nil
	}

	if r.executor == nil {
		text, err := call(ctx)
		if err != nil {
			return "", domain.WrapError(domain.ErrUpstream, "ocr", err)
		}
		return text, nil
	}
	text, err := resilience.Call(ctx, r.executor, "tesseract.ocr", call, nil)
	if err != nil {
		return "", domain.WrapError(domain.ErrUpstream, "ocr", err)
	}
	return text, nil
}
