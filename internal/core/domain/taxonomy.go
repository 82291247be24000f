package domain

import "strings"

// TagKeywords lists the trigger substrings that vote for one tag.
type TagKeywords struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// DepartmentGroup maps a plan category onto the departments it covers.
type DepartmentGroup struct {
	Category    string   `yaml:"category"`
	Departments []string `yaml:"departments"`
}

// Taxonomy is the closed tag set of one document profile.
type Taxonomy struct {
	Tags        []string      `yaml:"tags"`
	DefaultTag  string        `yaml:"default_tag"`
	FallbackTag string        `yaml:"fallback_tag"`
	Keywords    []TagKeywords `yaml:"keywords"`
}

func (t Taxonomy) Contains(tag string) bool {
	for _, known := range t.Tags {
		if known == tag {
			return true
		}
	}
	return false
}

// FirstValid returns the first candidate that belongs to the taxonomy.
func (t Taxonomy) FirstValid(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if t.Contains(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// Classify scores every keyword group by occurrence count in text and
// returns the best tag. Earlier groups win ties; a zero score yields the
// fallback tag.
func (t Taxonomy) Classify(text string) (string, int) {
	lowered := strings.ToLower(text)
	bestTag := ""
	bestScore := 0
	for _, group := range t.Keywords {
		if !t.Contains(group.Tag) {
			continue
		}
		score := 0
		for _, keyword := range group.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				continue
			}
			score += strings.Count(lowered, keyword)
		}
		if score > bestScore {
			bestTag = group.Tag
			bestScore = score
		}
	}
	if bestScore == 0 {
		return t.fallback(), 0
	}
	return bestTag, bestScore
}

func (t Taxonomy) fallback() string {
	if t.FallbackTag != "" && t.Contains(t.FallbackTag) {
		return t.FallbackTag
	}
	if t.DefaultTag != "" && t.Contains(t.DefaultTag) {
		return t.DefaultTag
	}
	if len(t.Tags) > 0 {
		return t.Tags[len(t.Tags)-1]
	}
	return ""
}

func PressTaxonomy() Taxonomy {
	return Taxonomy{
		Tags:        []string{"전체", "청년·교육", "일자리·경제", "복지·건강", "교통·주거", "문화·관광", "안전·환경", "행정·소식"},
		DefaultTag:  "전체",
		FallbackTag: "행정·소식",
		Keywords: []TagKeywords{
			{Tag: "청년·교육", Keywords: []string{"청년", "교육", "학교", "대학", "학생", "진로", "인재"}},
			{Tag: "일자리·경제", Keywords: []string{"일자리", "경제", "기업", "산업", "투자", "창업", "고용", "취업"}},
			{Tag: "복지·건강", Keywords: []string{"복지", "건강", "의료", "병원", "돌봄", "치료", "보건"}},
			{Tag: "교통·주거", Keywords: []string{"교통", "주거", "주택", "버스", "지하철", "도로", "임대", "아파트"}},
			{Tag: "문화·관광", Keywords: []string{"문화", "축제", "공연", "전시", "예술", "음악", "체육", "관광", "여행", "외국인"}},
			{Tag: "안전·환경", Keywords: []string{"안전", "환경", "화재", "재난", "폐기물", "청소", "오염", "방재"}},
			{Tag: "행정·소식", Keywords: []string{"행정", "참여", "시민", "정책", "회의", "협의", "민원", "홍보"}},
		},
	}
}

func PlanTaxonomy() Taxonomy {
	groups := PlanDepartments()
	keywords := make([]TagKeywords, 0, len(groups))
	for _, group := range groups {
		keywords = append(keywords, TagKeywords{Tag: group.Category, Keywords: group.Departments})
	}
	return Taxonomy{
		Tags:        []string{"전체", "기획감사", "복지안전", "건설교통", "도시환경", "경제산업", "문화교육"},
		DefaultTag:  "전체",
		FallbackTag: "전체",
		Keywords:    keywords,
	}
}

func PlanDepartments() []DepartmentGroup {
	return []DepartmentGroup{
		{Category: "기획감사", Departments: []string{"기획관", "기획조정실", "대변인", "감사위원회"}},
		{Category: "복지안전", Departments: []string{"시민안전실", "사회복지국", "시민건강국", "여성가족국", "자치경찰위원회"}},
		{Category: "건설교통", Departments: []string{"도시혁신균형실", "도시공간계획국", "주택건축국", "신공항추진본부", "교통혁신국", "건설본부"}},
		{Category: "도시환경", Departments: []string{"환경물정책실", "푸른도시국", "보건환경연구원", "낙동강관리본부", "상수도사업본부"}},
		{Category: "경제산업", Departments: []string{"디지털경제실", "금융창업정책관", "첨단산업국", "해양농수산국"}},
		{Category: "문화교육", Departments: []string{"문화체육국", "관광마이스국", "청년산학국", "인재개발원"}},
	}
}

// CategoryForDepartment returns the category whose department list
// matches department, or fallback.
func CategoryForDepartment(groups []DepartmentGroup, department, fallback string) string {
	for _, group := range groups {
		for _, name := range group.Departments {
			if name != "" && strings.Contains(department, name) {
				return group.Category
			}
		}
	}
	return fallback
}
