// Package naming derives output file names from summary metadata.
package naming

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

const (
	maxTitleWords = 4
	maxTitleRunes = 30
	maxNameRunes  = 100
	extension     = ".md"
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*\[\]{}]`)
	whitespace   = regexp.MustCompile(`\s+`)
	underscores  = regexp.MustCompile(`_+`)
)

// particles are standalone Korean postpositions that carry no meaning in
// a file name.
var particles = map[string]struct{}{
	"의": {}, "을": {}, "를": {}, "에": {}, "서": {}, "로": {}, "으로": {},
	"와": {}, "과": {}, "이": {}, "가": {}, "는": {}, "도": {},
}

type Options struct {
	FallbackTitle string
	DefaultTag    string
	Now           func() time.Time
}

// Filename renders "{date}_{tag}_{title}.md". The result never contains
// path separators or characters rejected by common file systems and is
// at most 100 runes long.
func Filename(meta domain.Metadata, opts Options) string {
	date := dateDigits(meta.Date)
	if date == "" {
		date = opts.now().Format("20060102")
	}

	tag := sanitize(meta.PrimaryTag())
	if tag == "" {
		tag = sanitize(opts.DefaultTag)
	}
	if tag == "" {
		tag = "전체"
	}

	title := CleanTitle(meta.Title, opts.FallbackTitle)

	prefix := date + "_" + tag + "_"
	budget := maxNameRunes - utf8.RuneCountInString(prefix) - utf8.RuneCountInString(extension)
	if budget < 1 {
		prefix = truncateRunes(prefix, maxNameRunes-utf8.RuneCountInString(extension)-1)
		budget = 1
	}
	title = strings.Trim(truncateRunes(title, budget), "_")
	if title == "" {
		title = truncateRunes(fallback(opts.FallbackTitle), budget)
	}
	return prefix + title + extension
}

// CleanTitle shortens a title into at most four meaningful words joined
// by underscores.
func CleanTitle(title, fallbackTitle string) string {
	cleaned := sanitize(title)

	var words []string
	for _, word := range strings.Split(cleaned, "_") {
		if word == "" || utf8.RuneCountInString(word) <= 1 {
			continue
		}
		if _, ok := particles[word]; ok {
			continue
		}
		words = append(words, word)
		if len(words) == maxTitleWords {
			break
		}
	}

	cleaned = strings.Trim(truncateRunes(strings.Join(words, "_"), maxTitleRunes), "_")
	if cleaned == "" {
		return fallback(fallbackTitle)
	}
	return cleaned
}

func sanitize(value string) string {
	value = illegalChars.ReplaceAllString(value, "")
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	value = whitespace.ReplaceAllString(strings.TrimSpace(value), "_")
	value = underscores.ReplaceAllString(value, "_")
	return strings.Trim(value, "_.")
}

func dateDigits(date string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, date)
}

func truncateRunes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	return string([]rune(value)[:limit])
}

func fallback(title string) string {
	if title = sanitize(title); title != "" {
		return title
	}
	return "보도자료"
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
