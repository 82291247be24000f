package frontmatter

import (
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC)
}

func pressCodec() *Codec {
	return New(domain.PressProfile()).WithClock(fixedClock)
}

const canonicalPress = `---
title: "부산 청년 일자리 박람회 개최"
date: "2025-07-04"
tags: ["일자리·경제"]
thumbnail_summary: "청년 구직자를 위한 박람회가 열립니다."
source_url: "https://www.busan.go.kr/nbtnewsBU/1700001"
source_pdf: "청년 일자리 박람회.pdf"
---
## 주요 내용

- 7월 9일부터 30일까지 벡스코에서 열림

**문의**: 일자리경제과 (051-888-1234)
`

func TestParseSerializeRoundTrip(t *testing.T) {
	codec := pressCodec()

	doc, ok := codec.Parse(canonicalPress)
	if !ok {
		t.Fatal("expected canonical document to parse")
	}
	if got := Serialize(doc.Metadata, doc.Body); got != canonicalPress {
		t.Fatalf("round trip mismatch:\n%s", got)
	}
}

func TestParseFields(t *testing.T) {
	doc, ok := pressCodec().Parse(canonicalPress)
	if !ok {
		t.Fatal("expected parse success")
	}
	meta := doc.Metadata
	if meta.Title != "부산 청년 일자리 박람회 개최" {
		t.Fatalf("unexpected title: %q", meta.Title)
	}
	if len(meta.Tags) != 1 || meta.Tags[0] != "일자리·경제" {
		t.Fatalf("unexpected tags: %#v", meta.Tags)
	}
	if meta.SourcePDF != "청년 일자리 박람회.pdf" {
		t.Fatalf("unexpected source_pdf: %q", meta.SourcePDF)
	}
	if !strings.HasPrefix(doc.Body, "## 주요 내용") {
		t.Fatalf("unexpected body start: %q", doc.Body)
	}
}

func TestParseMissingDelimiters(t *testing.T) {
	codec := pressCodec()
	cases := map[string]string{
		"empty":            "",
		"no opening":       "title: \"x\"\n---\nbody",
		"no closing":       "---\ntitle: \"x\"\nbody without end",
		"only opening":     "---",
		"prose from model": "요약을 작성했습니다.\n\n본문",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok := codec.Parse(input); ok {
				t.Fatalf("expected parse failure for %q", input)
			}
		})
	}
}

func TestParseToleratesLooseLines(t *testing.T) {
	input := "\ufeff\n---\ntitle: 'single quoted'\nthis line has no colon\nunknown_key: \"ignored\"\ntags: 복지·건강\n---\nbody\n"
	doc, ok := pressCodec().Parse(input)
	if !ok {
		t.Fatal("expected parse success")
	}
	if doc.Metadata.Title != "single quoted" {
		t.Fatalf("unexpected title: %q", doc.Metadata.Title)
	}
	if len(doc.Metadata.Tags) != 1 || doc.Metadata.Tags[0] != "복지·건강" {
		t.Fatalf("single value tags not parsed: %#v", doc.Metadata.Tags)
	}
	if doc.Body != "body\n" {
		t.Fatalf("unexpected body: %q", doc.Body)
	}
}

func TestParseFillsDefaults(t *testing.T) {
	doc, ok := pressCodec().Parse("---\n---\n")
	if !ok {
		t.Fatal("expected parse success")
	}
	meta := doc.Metadata
	if meta.Title != "부산시 보도자료" {
		t.Fatalf("default title not applied: %q", meta.Title)
	}
	if meta.Date != "2025-07-04" {
		t.Fatalf("default date should be today, got %q", meta.Date)
	}
	if len(meta.Tags) != 1 || meta.Tags[0] != "전체" {
		t.Fatalf("default tag not applied: %#v", meta.Tags)
	}
	if meta.ThumbnailSummary == "" {
		t.Fatal("default thumbnail not applied")
	}
}

func TestParsePlansDefaults(t *testing.T) {
	codec := New(domain.PlansProfile()).WithClock(fixedClock)
	doc, ok := codec.Parse("---\ntitle: \"교통혁신국 업무계획\"\n---\n본문")
	if !ok {
		t.Fatal("expected parse success")
	}
	if doc.Metadata.Date != "2025" {
		t.Fatalf("plans default date should be the plan year, got %q", doc.Metadata.Date)
	}
	if doc.Metadata.Department != "" {
		t.Fatalf("department is optional and must not be invented: %q", doc.Metadata.Department)
	}
}

const canonicalPlan = `---
title: "2025년 교통혁신국 주요업무계획"
date: "2025"
tags: ["건설교통"]
thumbnail_summary: "대중교통 환승 체계를 개편합니다."
source_pdf: "2025년 교통혁신국 주요업무계획.pdf"
---
## 주요 사업

- 광역 환승 할인 확대
`

func TestParseSerializeRoundTripPlans(t *testing.T) {
	codec := New(domain.PlansProfile()).WithClock(fixedClock)

	doc, ok := codec.Parse(canonicalPlan)
	if !ok {
		t.Fatal("expected plan document to parse")
	}
	if got := Serialize(doc.Metadata, doc.Body); got != canonicalPlan {
		t.Fatalf("round trip mismatch:\n%s", got)
	}
}

func TestParseEmptyRequiredFieldsTakeDefaults(t *testing.T) {
	doc, ok := pressCodec().Parse("---\ntitle: \"\"\ndate: \"\"\ntags: []\nthumbnail_summary: \"  \"\n---\n본문")
	if !ok {
		t.Fatal("expected parse success")
	}
	meta := doc.Metadata
	if meta.Title != "부산시 보도자료" {
		t.Fatalf("empty title kept: %q", meta.Title)
	}
	if meta.Date != "2025-07-04" {
		t.Fatalf("empty date kept: %q", meta.Date)
	}
	if len(meta.Tags) != 1 || meta.Tags[0] != "전체" {
		t.Fatalf("empty tags kept: %#v", meta.Tags)
	}
	if strings.TrimSpace(meta.ThumbnailSummary) == "" {
		t.Fatal("empty thumbnail kept")
	}
}

func TestSerializeOmitsEmptyOptionalFields(t *testing.T) {
	out := Serialize(domain.Metadata{
		Title:            "제목",
		Date:             "2025-07-04",
		Tags:             []string{"행정·소식"},
		ThumbnailSummary: "줄\n바꿈",
	}, "본문\n")

	want := "---\ntitle: \"제목\"\ndate: \"2025-07-04\"\ntags: [\"행정·소식\"]\nthumbnail_summary: \"줄 바꿈\"\n---\n본문\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
