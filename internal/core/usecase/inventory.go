package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/frontmatter"
	"github.com/kirillkom/civic-digest/internal/core/ports"
)

// InventoryUseCase compares the input PDFs with the generated markdown
// and optionally exports the comparison.
type InventoryUseCase struct {
	inbox    ports.SourceInbox
	catalog  ports.SourceCatalog
	store    ports.DocumentStore
	codec    *frontmatter.Codec
	matchers []Matcher
	exporter ports.InventoryExporter
	profile  domain.Profile
	logger   *slog.Logger
}

func NewInventoryUseCase(
	inbox ports.SourceInbox,
	catalog ports.SourceCatalog,
	store ports.DocumentStore,
	codec *frontmatter.Codec,
	exporter ports.InventoryExporter,
	profile domain.Profile,
	logger *slog.Logger,
) *InventoryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryUseCase{
		inbox:    inbox,
		catalog:  catalog,
		store:    store,
		codec:    codec,
		matchers: []Matcher{SourcePDFMatcher{}, SimilarityMatcher{Threshold: DefaultSimilarityThreshold}},
		exporter: exporter,
		profile:  profile,
		logger:   logger,
	}
}

func (uc *InventoryUseCase) Build(ctx context.Context) (domain.Inventory, error) {
	sources, err := uc.inbox.List(ctx)
	if err != nil {
		return domain.Inventory{}, fmt.Errorf("list source pdfs: %w", err)
	}
	files, err := uc.store.List(ctx)
	if err != nil {
		return domain.Inventory{}, domain.WrapError(domain.ErrStorage, "list outputs", err)
	}

	outputs := make([]OutputRecord, 0, len(files))
	for _, file := range files {
		record := OutputRecord{Name: file.Name, Path: file.Path}
		if doc, ok := uc.codec.Parse(string(file.Content)); ok {
			record.Metadata = doc.Metadata
			record.HasMeta = true
		}
		outputs = append(outputs, record)
	}

	inv := domain.Inventory{
		Profile:       uc.profile.Name,
		PDFCount:      len(sources),
		MarkdownCount: len(outputs),
		TagCounts:     make(map[string]int),
	}
	for _, output := range outputs {
		if tag := output.Metadata.PrimaryTag(); tag != "" {
			inv.TagCounts[tag]++
		}
	}

	for _, src := range sources {
		row := domain.InventoryRow{PDF: src.Filename}
		if uc.catalog != nil {
			if found, ok := uc.catalog.Lookup(ctx, src.Filename); ok {
				src.DiscoveredTitle = found.DiscoveredTitle
				row.SourceURL = found.DiscoveredURL
			}
		}
		if uc.profile.ParseDepartment {
			row.Department = uc.profile.DepartmentFromFilename(src.Filename)
		}
		if output, ok := uc.match(src, outputs); ok {
			row.Output = output.Name
			row.Title = output.Metadata.Title
			row.Date = output.Metadata.Date
			row.Tag = output.Metadata.PrimaryTag()
			if output.Metadata.SourceURL != "" {
				row.SourceURL = output.Metadata.SourceURL
			}
			if output.Metadata.Department != "" {
				row.Department = output.Metadata.Department
			}
			inv.Converted++
		} else {
			inv.Unconverted = append(inv.Unconverted, src.Filename)
		}
		inv.Rows = append(inv.Rows, row)
	}

	if uc.profile.ParseDepartment {
		inv.MissingDepartments = missingDepartments(uc.profile.Departments, outputs)
	}

	uc.logger.Info("inventory_built",
		"profile", inv.Profile,
		"pdfs", inv.PDFCount,
		"markdown", inv.MarkdownCount,
		"converted", inv.Converted,
		"success_rate", fmt.Sprintf("%.1f%%", inv.SuccessRate()),
		"tags", inv.TagCounts,
	)
	if len(inv.Unconverted) > 0 {
		uc.logger.Warn("inventory_unconverted", "count", len(inv.Unconverted), "sample", sample(inv.Unconverted, reportedFailures))
	}
	if len(inv.MissingDepartments) > 0 {
		uc.logger.Warn("inventory_missing_departments", "departments", inv.MissingDepartments)
	}
	return inv, nil
}

// Export writes the inventory spreadsheet to path.
func (uc *InventoryUseCase) Export(ctx context.Context, inv domain.Inventory, path string) error {
	if uc.exporter == nil {
		return domain.WrapError(domain.ErrConfig, "export inventory", fmt.Errorf("no exporter configured"))
	}
	if err := uc.exporter.Export(ctx, inv, path); err != nil {
		return domain.WrapError(domain.ErrStorage, "export inventory", err)
	}
	uc.logger.Info("inventory_exported", "path", path, "rows", len(inv.Rows))
	return nil
}

func (uc *InventoryUseCase) match(src domain.SourceDocument, outputs []OutputRecord) (OutputRecord, bool) {
	candidate := DedupCandidate{Filename: src.Filename, Title: src.DiscoveredTitle}
	for _, matcher := range uc.matchers {
		for _, output := range outputs {
			if matcher.Same(candidate, output) {
				return output, true
			}
		}
	}
	return OutputRecord{}, false
}

// missingDepartments lists the departments of the table that no output
// covers.
func missingDepartments(groups []domain.DepartmentGroup, outputs []OutputRecord) []string {
	var missing []string
	for _, group := range groups {
		for _, department := range group.Departments {
			covered := false
			for _, output := range outputs {
				if strings.Contains(output.Metadata.Department, department) || strings.Contains(output.Name, department) {
					covered = true
					break
				}
			}
			if !covered {
				missing = append(missing, department)
			}
		}
	}
	return missing
}

func sample(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
