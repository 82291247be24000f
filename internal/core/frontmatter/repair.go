package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

// Repair names one silent fix applied to a parsed document.
type Repair struct {
	Field  string
	Detail string
}

func (r Repair) String() string {
	return r.Field + ": " + r.Detail
}

// strikeRange matches range separators such as "9일~~30일" that markdown
// would otherwise render as strike-through.
var strikeRange = regexp.MustCompile(`([0-9가-힣.)])[ \t]*~~[ \t]*([0-9])`)

// RepairStrikeRanges rewrites "A~~B" ranges into "A-B". Matches cannot
// overlap, so chained ranges sharing a digit take more than one pass.
func RepairStrikeRanges(text string) string {
	for strings.Contains(text, "~~") {
		next := strikeRange.ReplaceAllString(text, "${1}-${2}")
		if next == text {
			break
		}
		text = next
	}
	return text
}

// Repair validates doc in place against the codec's taxonomy and returns
// what it changed. fallbackDate replaces dates that cannot be normalized.
func (c *Codec) Repair(doc *domain.SummaryDocument, fallbackDate string) []Repair {
	var repairs []Repair
	meta := &doc.Metadata

	if tag, ok := c.taxonomy.FirstValid(meta.Tags); ok {
		if len(meta.Tags) != 1 || meta.Tags[0] != tag {
			repairs = append(repairs, Repair{Field: keyTags, Detail: fmt.Sprintf("%v reduced to [%s]", meta.Tags, tag)})
		}
		meta.Tags = []string{tag}
	} else {
		tag, score := c.taxonomy.Classify(meta.Title + " " + meta.ThumbnailSummary + " " + doc.Body)
		repairs = append(repairs, Repair{Field: keyTags, Detail: fmt.Sprintf("%v outside taxonomy, keyword fallback chose %s (score %d)", meta.Tags, tag, score)})
		meta.Tags = []string{tag}
	}

	for _, field := range []struct {
		name  string
		value *string
	}{
		{keyTitle, &meta.Title},
		{keyThumbnailSummary, &meta.ThumbnailSummary},
		{"body", &doc.Body},
	} {
		fixed := RepairStrikeRanges(*field.value)
		if fixed != *field.value {
			repairs = append(repairs, Repair{Field: field.name, Detail: "strike-through range rewritten"})
			*field.value = fixed
		}
	}

	if normalized, ok := NormalizeDate(meta.Date); ok {
		if normalized != meta.Date {
			repairs = append(repairs, Repair{Field: keyDate, Detail: fmt.Sprintf("%q normalized to %q", meta.Date, normalized)})
		}
		meta.Date = normalized
	} else {
		replacement, ok := NormalizeDate(fallbackDate)
		if !ok {
			replacement = c.now().Format("2006-01-02")
		}
		repairs = append(repairs, Repair{Field: keyDate, Detail: fmt.Sprintf("%q replaced by %q", meta.Date, replacement)})
		meta.Date = replacement
	}

	if c.thumbnailRunes > 0 && utf8.RuneCountInString(meta.ThumbnailSummary) > c.thumbnailRunes {
		meta.ThumbnailSummary = string([]rune(meta.ThumbnailSummary)[:c.thumbnailRunes])
		repairs = append(repairs, Repair{Field: keyThumbnailSummary, Detail: fmt.Sprintf("trimmed to %d runes", c.thumbnailRunes)})
	}

	return repairs
}
