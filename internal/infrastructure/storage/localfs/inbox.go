package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// Inbox lists the PDFs waiting in the input directory.
type Inbox struct {
	dir string
}

func NewInbox(dir string) *Inbox {
	return &Inbox{dir: dir}
}

// List returns the PDFs sorted by name. Filenames are NFC-normalized;
// paths keep the on-disk spelling.
func (i *Inbox) List(_ context.Context) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(i.dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	docs := make([]domain.SourceDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		docs = append(docs, domain.SourceDocument{
			Path:     filepath.Join(i.dir, entry.Name()),
			Filename: norm.NFC.String(entry.Name()),
		})
	}
	sort.Slice(docs, func(a, b int) bool { return docs[a].Filename < docs[b].Filename })
	return docs, nil
}
