package ports

import (
	"context"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// DocumentProcessor converts a single source PDF.
type DocumentProcessor interface {
	Process(ctx context.Context, src domain.SourceDocument, opts domain.RunOptions) domain.DocumentResult
}

// BatchRunner converts every PDF of the input directory.
type BatchRunner interface {
	Run(ctx context.Context, opts domain.RunOptions) (domain.BatchReport, error)
}

// InventoryBuilder compares inputs with outputs.
type InventoryBuilder interface {
	Build(ctx context.Context) (domain.Inventory, error)
}
