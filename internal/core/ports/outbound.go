package ports

import (
	"context"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// TextExtractor pulls the cleaned text layer out of a PDF.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (domain.ExtractedText, error)
}

// ContactExtractor recovers the responsible department and phone number.
type ContactExtractor interface {
	Extract(ctx context.Context, path, text string) domain.ContactInfo
}

// PageRenderer rasterizes one PDF page to PNG bytes.
type PageRenderer interface {
	RenderPage(ctx context.Context, path string, page int, scale float64) ([]byte, error)
}

// Recognizer runs optical character recognition over an image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, languages []string) (string, error)
}

type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer is the external summarization call.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Pacer blocks until the next upstream call is allowed.
type Pacer interface {
	Wait(ctx context.Context) error
}

// StoredFile is one markdown output as seen by the dedup gate.
type StoredFile struct {
	Name    string
	Path    string
	Content []byte
}

// DocumentStore owns the output directory.
type DocumentStore interface {
	List(ctx context.Context) ([]StoredFile, error)
	Exists(ctx context.Context, name string) (string, bool)
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// SourceCatalog resolves crawler metadata for a downloaded PDF.
type SourceCatalog interface {
	Lookup(ctx context.Context, filename string) (domain.SourceDocument, bool)
}

// Crawler runs the external discovery collaborator.
type Crawler interface {
	Crawl(ctx context.Context, maxPages int) error
}

// SourceInbox lists the PDFs waiting in the input directory.
type SourceInbox interface {
	List(ctx context.Context) ([]domain.SourceDocument, error)
}

// BatchObserver receives per-document and per-run outcomes.
type BatchObserver interface {
	ObserveDocument(result domain.DocumentResult)
	ObserveBatch(report domain.BatchReport)
}

// InventoryExporter writes an inventory to a file.
type InventoryExporter interface {
	Export(ctx context.Context, inventory domain.Inventory, path string) error
}
