package prompt

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

func TestRenderPressTemplate(t *testing.T) {
	tmpl, err := Load(domain.ProfilePress, Overrides{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	system, user, err := tmpl.Render(Data{
		Content:        "보도자료 본문",
		SourceURL:      "https://example.test/1",
		SourcePDF:      "a.pdf",
		Tags:           domain.PressTaxonomy().Tags,
		ThumbnailRunes: 80,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(system, "frontmatter") {
		t.Fatalf("unexpected system prompt: %q", system)
	}
	for _, want := range []string{"보도자료 본문", `source_url: "https://example.test/1"`, "문화·관광", "80자 이내"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt misses %q", want)
		}
	}
}

func TestRenderPlansTemplate(t *testing.T) {
	tmpl, err := Load(domain.ProfilePlans, Overrides{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	_, user, err := tmpl.Render(Data{
		Content:        "업무계획 본문",
		Department:     "교통혁신국",
		Category:       "건설교통",
		Year:           "2025",
		Tags:           domain.PlanTaxonomy().Tags,
		Departments:    domain.PlanDepartments(),
		ThumbnailRunes: 80,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{`title: "교통혁신국 2025년 주요업무계획"`, `tags: ["건설교통"]`, "• 건설교통: 도시혁신균형실"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt misses %q", want)
		}
	}
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.tmpl")
	if err := os.WriteFile(path, []byte("요약: {{.Content}}"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	tmpl, err := Load(domain.ProfilePress, Overrides{UserPath: path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, user, err := tmpl.Render(Data{Content: "본문"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if user != "요약: 본문" {
		t.Fatalf("override not used: %q", user)
	}
}

func TestLoadErrorsAreConfigErrors(t *testing.T) {
	_, err := Load("unknown", Overrides{})
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}

	_, err = Load(domain.ProfilePress, Overrides{SystemPath: filepath.Join(t.TempDir(), "missing.tmpl")})
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected config error for missing override, got %v", err)
	}
}
