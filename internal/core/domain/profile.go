package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Defaults are written into frontmatter fields the model left out.
type Defaults struct {
	Title            string `yaml:"title"`
	Date             string `yaml:"date"`
	ThumbnailSummary string `yaml:"thumbnail_summary"`
	Department       string `yaml:"department"`
}

// Profile bundles everything that differs between press releases and
// work plans.
type Profile struct {
	Name     string
	Taxonomy Taxonomy
	Defaults Defaults

	DefaultSourceURL string
	MinChars         int
	MaxPages         int
	PromptBudget     int
	ThumbnailRunes   int
	FallbackTitle    string
	ExtractContact   bool

	// Work plans carry their department in the file name and their tag is
	// decided by the department table, not by the model.
	ParseDepartment    bool
	FilenameTypeSuffix string
	Departments        []DepartmentGroup
}

const (
	ProfilePress = "press"
	ProfilePlans = "plans"
)

func PressProfile() Profile {
	return Profile{
		Name:     ProfilePress,
		Taxonomy: PressTaxonomy(),
		Defaults: Defaults{
			Title:            "부산시 보도자료",
			ThumbnailSummary: "부산시 보도자료입니다.",
		},
		DefaultSourceURL: "https://www.busan.go.kr/nbtnewsBU",
		MinChars:         50,
		PromptBudget:     3000,
		ThumbnailRunes:   80,
		FallbackTitle:    "보도자료",
		ExtractContact:   true,
	}
}

func PlansProfile() Profile {
	return Profile{
		Name:     ProfilePlans,
		Taxonomy: PlanTaxonomy(),
		Defaults: Defaults{
			Title:            "업무계획",
			Date:             "2025",
			ThumbnailSummary: "주요업무계획 요약입니다.",
			Department:       "미분류",
		},
		MinChars:           100,
		MaxPages:           5,
		PromptBudget:       4000,
		ThumbnailRunes:     80,
		FallbackTitle:      "업무계획",
		ParseDepartment:    true,
		FilenameTypeSuffix: "주요업무계획",
		Departments:        PlanDepartments(),
	}
}

var yearPrefix = regexp.MustCompile(`^\d{4}\s*년?\s*`)

// DepartmentFromFilename reads "{year}년 {department} {type}.pdf" names.
// Names that do not carry the type suffix yield the default department.
func (p Profile) DepartmentFromFilename(filename string) string {
	stem := strings.TrimSpace(strings.TrimSuffix(filename, filepath.Ext(filename)))
	if p.FilenameTypeSuffix == "" || !strings.Contains(stem, p.FilenameTypeSuffix) {
		return p.Defaults.Department
	}
	stem = strings.TrimSpace(strings.Replace(stem, p.FilenameTypeSuffix, "", 1))
	stem = strings.TrimSpace(yearPrefix.ReplaceAllString(stem, ""))
	if stem == "" {
		return p.Defaults.Department
	}
	return stem
}
