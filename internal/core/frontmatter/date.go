package frontmatter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	bareYear    = regexp.MustCompile(`^\d{4}$`)
	numericDate = regexp.MustCompile(`(\d{4})\s*[-./]\s*(\d{1,2})\s*[-./]\s*(\d{1,2})`)
	koreanDate  = regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	koreanYear  = regexp.MustCompile(`^(\d{4})\s*년$`)
)

// NormalizeDate rewrites the date shapes found in press releases into
// YYYY-MM-DD, or keeps a bare YYYY. It reports false for anything else.
func NormalizeDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if bareYear.MatchString(value) {
		return value, true
	}
	if m := koreanYear.FindStringSubmatch(value); m != nil {
		return m[1], true
	}
	for _, pattern := range []*regexp.Regexp{numericDate, koreanDate} {
		m := pattern.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if date, ok := buildDate(m[1], m[2], m[3]); ok {
			return date, true
		}
	}
	return "", false
}

func buildDate(year, month, day string) (string, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return "", false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}
