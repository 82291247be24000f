package contact

import (
	"regexp"
	"strings"
	"unicode"
)

// Match is what one strategy recovered. Either field may be empty.
type Match struct {
	Department string
	Phone      string
}

// Strategy is one named heuristic over the lines of a page.
type Strategy struct {
	Name string
	Find func(lines []string) (Match, bool)
}

// DefaultStrategies is the canonical order: an explicit department label
// first, then the lowest-ranked responsible person, then the last phone
// line of a table, then any phone number at all.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "department-label", Find: findDepartmentLabel},
		{Name: "responsible-person", Find: findResponsiblePerson},
		{Name: "last-phone-line", Find: findLastPhoneLine},
		{Name: "first-phone", Find: findFirstPhone},
	}
}

var (
	phonePattern = regexp.MustCompile(`\b0\d{1,2}[)\-. ]{1,2}\d{3,4}[\-. ]\d{4}\b`)
	deptLabels   = regexp.MustCompile(`담당\s?부서|부서명|소관\s?부서`)
	unitSuffixes = []string{"위원회", "본부", "센터", "과", "팀", "실", "국", "단", "관", "소", "원"}

	// lowest rank first; a line naming one of these is the actual contact
	responsibleLabels = []string{"담당자", "주무관", "담당"}
	seniorLabels      = []string{"과장", "팀장", "국장", "실장", "사무관"}

	// words that end in a unit suffix but are not units
	notUnits = map[string]struct{}{
		"주무관": {}, "사무관": {}, "기관": {}, "관련": {}, "담당관실": {}, "연구원": {}, "직원": {}, "공무원": {}, "위원": {},
	}
)

func findDepartmentLabel(lines []string) (Match, bool) {
	for i, line := range lines {
		loc := deptLabels.FindStringIndex(line)
		if loc == nil {
			continue
		}
		rest := line[loc[1]:]
		if dept := firstUnit(rest); dept != "" {
			return Match{Department: dept, Phone: unitPhone(rest)}, true
		}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				continue
			}
			if dept := firstUnit(next); dept != "" {
				return Match{Department: dept, Phone: unitPhone(next)}, true
			}
			break
		}
	}
	return Match{}, false
}

// unitPhone is the phone of a department line, unless the line names
// people. Their numbers are ranked by findResponsiblePerson.
func unitPhone(text string) string {
	masked := maskDeptLabels(text)
	if containsAny(masked, responsibleLabels) || containsAny(masked, seniorLabels) {
		return ""
	}
	return FindPhone(text)
}

// maskDeptLabels blanks department labels so that the 담당 of 담당부서 is
// not read as a responsible-person label. Byte offsets are preserved.
func maskDeptLabels(line string) string {
	return deptLabels.ReplaceAllStringFunc(line, func(label string) string {
		return strings.Repeat(" ", len(label))
	})
}

func findResponsiblePerson(lines []string) (Match, bool) {
	var shared *Match
	for _, line := range lines {
		if FindPhone(line) == "" {
			continue
		}
		idx := indexAny(maskDeptLabels(line), responsibleLabels)
		if idx < 0 {
			continue
		}
		if !containsAny(line, seniorLabels) {
			return Match{Department: firstUnit(line), Phone: FindPhone(line)}, true
		}
		// The line also names a senior; keep the number after the label.
		if shared == nil {
			phone := FindPhone(line[idx:])
			if phone == "" {
				phone = FindPhone(line)
			}
			shared = &Match{Department: firstUnit(line), Phone: phone}
		}
	}
	if shared != nil {
		return *shared, true
	}
	return Match{}, false
}

func findLastPhoneLine(lines []string) (Match, bool) {
	var phoneLines []string
	for _, line := range lines {
		if FindPhone(line) != "" {
			phoneLines = append(phoneLines, line)
		}
	}
	if len(phoneLines) < 2 {
		return Match{}, false
	}
	for _, line := range phoneLines {
		if containsAny(line, responsibleLabels) {
			return Match{}, false
		}
	}
	last := phoneLines[len(phoneLines)-1]
	return Match{Department: firstUnit(last), Phone: FindPhone(last)}, true
}

func findFirstPhone(lines []string) (Match, bool) {
	joined := strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
	phone := FindPhone(joined)
	if phone == "" {
		return Match{}, false
	}
	return Match{Phone: phone}, true
}

// FindPhone returns the first phone number in text, normalized.
func FindPhone(text string) string {
	raw := phonePattern.FindString(text)
	if raw == "" {
		return ""
	}
	return NormalizePhone(raw)
}

// NormalizePhone rewrites a phone number into dash-separated groups:
// 02-XXX(X)-XXXX for Seoul, a three-digit area code otherwise.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 9 || len(d) > 11 {
		return ""
	}
	area := 3
	if strings.HasPrefix(d, "02") {
		area = 2
	}
	return d[:area] + "-" + d[area:len(d)-4] + "-" + d[len(d)-4:]
}

// firstUnit returns the first token that looks like an organizational
// unit name.
func firstUnit(text string) string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.Is(unicode.Hangul, r) && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		if isUnit(token) {
			return token
		}
	}
	return ""
}

func isUnit(token string) bool {
	if len([]rune(token)) < 2 {
		return false
	}
	if _, ok := notUnits[token]; ok {
		return false
	}
	for _, label := range seniorLabels {
		if strings.HasSuffix(token, label) {
			return false
		}
	}
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(token, suffix) && len([]rune(token)) > len([]rune(suffix)) {
			return true
		}
	}
	return false
}

func containsAny(line string, words []string) bool {
	return indexAny(line, words) >= 0
}

func indexAny(line string, words []string) int {
	best := -1
	for _, word := range words {
		if idx := strings.Index(line, word); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}
