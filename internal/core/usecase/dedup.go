package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/frontmatter"
	"github.com/kirillkom/civic-digest/internal/core/ports"
)

const DefaultSimilarityThreshold = 0.82

// OutputRecord is one existing markdown output as the gate sees it.
type OutputRecord struct {
	Name     string
	Path     string
	Metadata domain.Metadata
	HasMeta  bool
}

// DedupCandidate describes the PDF being checked.
type DedupCandidate struct {
	Filename string
	Title    string
}

// Matcher decides whether an existing output already covers a candidate.
type Matcher interface {
	Name() string
	Same(candidate DedupCandidate, output OutputRecord) bool
}

// SourcePDFMatcher compares the identifier embedded in the frontmatter.
type SourcePDFMatcher struct{}

func (SourcePDFMatcher) Name() string { return "source_pdf" }

func (SourcePDFMatcher) Same(candidate DedupCandidate, output OutputRecord) bool {
	if !output.HasMeta || output.Metadata.SourcePDF == "" {
		return false
	}
	return norm.NFC.String(strings.TrimSpace(output.Metadata.SourcePDF)) == norm.NFC.String(strings.TrimSpace(candidate.Filename))
}

// SimilarityMatcher compares normalized names by Levenshtein similarity.
type SimilarityMatcher struct {
	Threshold float64
	// MinContainRunes is the shortest normalized name for which plain
	// containment counts as a match.
	MinContainRunes int
}

func (SimilarityMatcher) Name() string { return "similarity" }

func (m SimilarityMatcher) Same(candidate DedupCandidate, output OutputRecord) bool {
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	minContain := m.MinContainRunes
	if minContain <= 0 {
		minContain = 6
	}

	var mine []string
	for _, value := range []string{stem(candidate.Filename), candidate.Title} {
		if n := NormalizeName(value); n != "" {
			mine = append(mine, n)
		}
	}
	var theirs []string
	for _, value := range []string{stem(output.Name), titlePart(output.Name), output.Metadata.Title} {
		if n := NormalizeName(value); n != "" {
			theirs = append(theirs, n)
		}
	}

	for _, a := range mine {
		for _, b := range theirs {
			if levenshtein.Similarity(a, b, nil) >= threshold {
				return true
			}
			if contains(a, b, minContain) {
				return true
			}
		}
	}
	return false
}

func contains(a, b string, minRunes int) bool {
	short, long := a, b
	if len([]rune(short)) > len([]rune(long)) {
		short, long = long, short
	}
	return len([]rune(short)) >= minRunes && strings.Contains(long, short)
}

// NormalizeName applies NFC, drops punctuation, symbols and whitespace,
// and case-folds.
func NormalizeName(value string) string {
	value = norm.NFC.String(value)
	value = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
	return cases.Fold().String(value)
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// titlePart strips the "{date}_{tag}_" prefix of a generated name.
func titlePart(name string) string {
	parts := strings.SplitN(stem(name), "_", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

// DedupGate answers "was this PDF already converted?" against the output
// directory. Outputs are indexed once and kept current through Remember.
type DedupGate struct {
	store    ports.DocumentStore
	codec    *frontmatter.Codec
	matchers []Matcher
	logger   *slog.Logger

	mu      sync.Mutex
	loaded  bool
	outputs []OutputRecord
}

func NewDedupGate(store ports.DocumentStore, codec *frontmatter.Codec, logger *slog.Logger, matchers ...Matcher) *DedupGate {
	if logger == nil {
		logger = slog.Default()
	}
	if len(matchers) == 0 {
		matchers = []Matcher{SourcePDFMatcher{}, SimilarityMatcher{Threshold: DefaultSimilarityThreshold}}
	}
	return &DedupGate{store: store, codec: codec, matchers: matchers, logger: logger}
}

// Check returns the path of an output that already covers src, or "".
func (g *DedupGate) Check(ctx context.Context, src domain.SourceDocument) (string, error) {
	outputs, err := g.index(ctx)
	if err != nil {
		return "", err
	}

	candidate := DedupCandidate{Filename: src.Filename, Title: src.DiscoveredTitle}
	for _, matcher := range g.matchers {
		for _, output := range outputs {
			if matcher.Same(candidate, output) {
				g.logger.Info("dedup_match", "pdf", src.Filename, "output", output.Name, "matcher", matcher.Name())
				return output.Path, nil
			}
		}
	}
	return "", nil
}

// CheckTitle reports whether the derived target name is already taken by
// an output carrying the same title.
func (g *DedupGate) CheckTitle(ctx context.Context, name, title string) (string, bool) {
	path, ok := g.store.Exists(ctx, name)
	if !ok {
		return "", false
	}
	outputs, err := g.index(ctx)
	if err != nil {
		return "", false
	}
	want := NormalizeName(title)
	for _, output := range outputs {
		if output.Name == name && output.HasMeta && NormalizeName(output.Metadata.Title) == want {
			return path, true
		}
	}
	return "", false
}

// Remember adds a freshly written output to the index.
func (g *DedupGate) Remember(name, path string, meta domain.Metadata) {
	g.mu.Lock()
	defer g.mu.Unlock()
	record := OutputRecord{Name: name, Path: path, Metadata: meta, HasMeta: true}
	for i := range g.outputs {
		if g.outputs[i].Name == name {
			g.outputs[i] = record
			return
		}
	}
	g.outputs = append(g.outputs, record)
}

func (g *DedupGate) index(ctx context.Context) ([]OutputRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loaded {
		return g.outputs, nil
	}

	files, err := g.store.List(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorage, "index outputs", fmt.Errorf("list outputs: %w", err))
	}
	outputs := make([]OutputRecord, 0, len(files))
	for _, file := range files {
		record := OutputRecord{Name: file.Name, Path: file.Path}
		if doc, ok := g.codec.Parse(string(file.Content)); ok {
			record.Metadata = doc.Metadata
			record.HasMeta = true
		}
		outputs = append(outputs, record)
	}
	g.outputs = outputs
	g.loaded = true
	return g.outputs, nil
}
