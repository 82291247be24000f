// Package frontmatter reads and writes the "---"-delimited key/value
// header that precedes every generated markdown document.
package frontmatter

import (
	"strings"
	"time"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

const delimiter = "---"

const (
	keyTitle            = "title"
	keyDate             = "date"
	keyTags             = "tags"
	keyThumbnailSummary = "thumbnail_summary"
	keySourceURL        = "source_url"
	keyDepartment       = "department"
	keySourcePDF        = "source_pdf"
)

type Codec struct {
	taxonomy       domain.Taxonomy
	defaults       domain.Defaults
	thumbnailRunes int
	now            func() time.Time
}

func New(profile domain.Profile) *Codec {
	return &Codec{
		taxonomy:       profile.Taxonomy,
		defaults:       profile.Defaults,
		thumbnailRunes: profile.ThumbnailRunes,
		now:            time.Now,
	}
}

// WithClock replaces the clock used for the default date.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Parse splits text into metadata and body. It reports false only when
// the opening or closing delimiter line is missing. Required fields the
// header omits or leaves empty are filled with defaults.
func (c *Codec) Parse(text string) (domain.SummaryDocument, bool) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.TrimLeft(text, " \t\r\n")

	header, rest, _ := cutLine(text)
	if strings.TrimSpace(header) != delimiter {
		return domain.SummaryDocument{}, false
	}

	var block []string
	closed := false
	for {
		var line string
		var more bool
		line, rest, more = cutLine(rest)
		if strings.TrimSpace(line) == delimiter {
			closed = true
			break
		}
		block = append(block, line)
		if !more {
			break
		}
	}
	if !closed {
		return domain.SummaryDocument{}, false
	}

	meta, seen := c.parseBlock(block)
	c.fillDefaults(&meta, seen)
	return domain.SummaryDocument{Metadata: meta, Body: rest}, true
}

func (c *Codec) parseBlock(lines []string) (domain.Metadata, map[string]bool) {
	var meta domain.Metadata
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, ":")
		if line == "" || !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case keyTags:
			meta.Tags = c.parseTags(value)
		case keyTitle:
			meta.Title = unquote(value)
		case keyDate:
			meta.Date = unquote(value)
		case keyThumbnailSummary:
			meta.ThumbnailSummary = unquote(value)
		case keySourceURL:
			meta.SourceURL = unquote(value)
		case keyDepartment:
			meta.Department = unquote(value)
		case keySourcePDF:
			meta.SourcePDF = unquote(value)
		default:
			continue
		}
		seen[key] = true
	}
	return meta, seen
}

func (c *Codec) parseTags(value string) []string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		var tags []string
		for _, item := range strings.Split(value[1:len(value)-1], ",") {
			item = strings.Trim(strings.TrimSpace(item), `"'`)
			item = strings.TrimSpace(item)
			if item != "" {
				tags = append(tags, item)
			}
		}
		if len(tags) == 0 {
			return c.defaultTags()
		}
		return tags
	}
	value = strings.TrimSpace(strings.Trim(value, `"'`))
	if value == "" {
		return c.defaultTags()
	}
	return []string{value}
}

// fillDefaults fills required fields that are absent or empty. Optional
// fields are left alone so a well-formed header survives a round trip.
func (c *Codec) fillDefaults(meta *domain.Metadata, seen map[string]bool) {
	if !seen[keyTitle] || strings.TrimSpace(meta.Title) == "" {
		meta.Title = c.defaults.Title
	}
	if !seen[keyDate] || strings.TrimSpace(meta.Date) == "" {
		meta.Date = c.defaults.Date
		if meta.Date == "" {
			meta.Date = c.now().Format(time.DateOnly)
		}
	}
	if !seen[keyTags] || len(meta.Tags) == 0 {
		meta.Tags = c.defaultTags()
	}
	if !seen[keyThumbnailSummary] || strings.TrimSpace(meta.ThumbnailSummary) == "" {
		meta.ThumbnailSummary = c.defaults.ThumbnailSummary
	}
}

func (c *Codec) defaultTags() []string {
	if c.taxonomy.DefaultTag == "" {
		return nil
	}
	return []string{c.taxonomy.DefaultTag}
}

// Serialize renders metadata and body back into a document. Optional
// fields are emitted only when set.
func Serialize(meta domain.Metadata, body string) string {
	var b strings.Builder
	b.WriteString(delimiter + "\n")
	writeField(&b, keyTitle, meta.Title)
	writeField(&b, keyDate, meta.Date)
	b.WriteString(keyTags + ": [")
	for i, tag := range meta.Tags {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(tag))
	}
	b.WriteString("]\n")
	writeField(&b, keyThumbnailSummary, meta.ThumbnailSummary)
	if meta.SourceURL != "" {
		writeField(&b, keySourceURL, meta.SourceURL)
	}
	if meta.Department != "" {
		writeField(&b, keyDepartment, meta.Department)
	}
	if meta.SourcePDF != "" {
		writeField(&b, keySourcePDF, meta.SourcePDF)
	}
	b.WriteString(delimiter + "\n")
	b.WriteString(body)
	return b.String()
}

func writeField(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(quote(value))
	b.WriteByte('\n')
}

func quote(value string) string {
	value = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(value)
	return `"` + strings.TrimSpace(value) + `"`
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// cutLine returns the first line of s without its terminator and the
// remainder after it. more is false when s had no newline.
func cutLine(s string) (line, rest string, more bool) {
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return strings.TrimSuffix(s, "\r"), "", false
	}
	return strings.TrimSuffix(s[:idx], "\r"), s[idx+1:], true
}
