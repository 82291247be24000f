// Package manifest reads the crawler's download manifest.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// Entry is one downloaded PDF as the crawler records it. JSON manifests
// parse as well since JSON is valid YAML.
type Entry struct {
	URL      string `yaml:"url"`
	Title    string `yaml:"title"`
	Date     string `yaml:"date"`
	File     string `yaml:"file"`
	Filename string `yaml:"filename"`
}

func (e Entry) name() string {
	if e.File != "" {
		return e.File
	}
	return e.Filename
}

// Catalog joins manifest entries onto inbox PDFs by file name. The file
// is read on first use; a missing manifest is an empty catalog.
type Catalog struct {
	path   string
	logger *slog.Logger

	once    sync.Once
	entries map[string]domain.SourceDocument
	err     error
}

func New(path string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{path: path, logger: logger}
}

func (c *Catalog) Lookup(_ context.Context, filename string) (domain.SourceDocument, bool) {
	c.once.Do(c.load)
	if c.err != nil {
		return domain.SourceDocument{}, false
	}
	doc, ok := c.entries[key(filename)]
	return doc, ok
}

// Len reports the number of usable entries.
func (c *Catalog) Len() int {
	c.once.Do(c.load)
	return len(c.entries)
}

func (c *Catalog) load() {
	c.entries = map[string]domain.SourceDocument{}
	if c.path == "" {
		return
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("crawl_manifest_missing", "path", c.path)
		return
	}
	if err != nil {
		c.err = fmt.Errorf("read crawl manifest: %w", err)
		c.logger.Warn("crawl_manifest_unreadable", "path", c.path, "error", err)
		return
	}

	entries, err := Parse(data)
	if err != nil {
		c.err = err
		c.logger.Warn("crawl_manifest_invalid", "path", c.path, "error", err)
		return
	}
	for _, entry := range entries {
		name := entry.name()
		if name == "" {
			continue
		}
		c.entries[key(name)] = domain.SourceDocument{
			Filename:        norm.NFC.String(name),
			DiscoveredURL:   strings.TrimSpace(entry.URL),
			DiscoveredTitle: strings.TrimSpace(entry.Title),
			DiscoveredDate:  strings.TrimSpace(entry.Date),
		}
	}
	c.logger.Info("crawl_manifest_loaded", "path", c.path, "entries", len(c.entries))
}

// Parse accepts either a bare list of entries or a mapping with a
// "documents" list.
func Parse(data []byte) ([]Entry, error) {
	var list []Entry
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Documents []Entry `yaml:"documents"`
	}
	if err := yaml.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode crawl manifest: %w", err)
	}
	return wrapped.Documents, nil
}

func key(filename string) string {
	return norm.NFC.String(strings.TrimSpace(filename))
}
