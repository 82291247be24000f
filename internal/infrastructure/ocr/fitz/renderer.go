// Package fitz rasterizes PDF pages through MuPDF.
package fitz

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// baseDPI is the PDF user-space resolution; scale 1.0 renders at 72 DPI.
const baseDPI = 72.0

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPage renders the zero-based page of path as PNG at scale times
// the PDF resolution.
func (r *Renderer) RenderPage(ctx context.Context, path string, page int, scale float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open pdf for rendering", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "render page", fmt.Errorf("page %d out of range (%d pages)", page, doc.NumPage()))
	}

	png, err := doc.ImagePNG(page, baseDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return png, nil
}
