package frontmatter

import (
	"strings"
	"testing"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

func TestRepairStrikeRanges(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "7월 9일~~30일", want: "7월 9일-30일"},
		{in: "2025.7.9 ~~ 7.30", want: "2025.7.9-7.30"},
		{in: "(월)~~(금)", want: "(월)~~(금)"},
		{in: "~~진짜 취소선~~", want: "~~진짜 취소선~~"},
		{in: "10:00~18:00", want: "10:00~18:00"},
		{in: "1~~2~~3", want: "1-2-3"},
		{in: "1일~~2일~~3일", want: "1일-2일-3일"},
	}
	for _, tc := range cases {
		if got := RepairStrikeRanges(tc.in); got != tc.want {
			t.Fatalf("RepairStrikeRanges(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRepairAppliesToMetadataAndBody(t *testing.T) {
	codec := pressCodec()
	doc := domain.SummaryDocument{
		Metadata: domain.Metadata{
			Title:            "여름 축제 7월 9일~~30일",
			Date:             "2025-07-04",
			Tags:             []string{"문화·관광"},
			ThumbnailSummary: "7월 9일~~30일 열려요",
		},
		Body: "- 기간: 7월 9일~~30일\n",
	}

	repairs := codec.Repair(&doc, "")
	if len(repairs) != 3 {
		t.Fatalf("expected three strike-through repairs, got %v", repairs)
	}
	for _, value := range []string{doc.Metadata.Title, doc.Metadata.ThumbnailSummary, doc.Body} {
		if strings.Contains(value, "~~") {
			t.Fatalf("strike-through left in %q", value)
		}
	}
}

func TestRepairTagClosure(t *testing.T) {
	codec := pressCodec()
	taxonomy := domain.PressTaxonomy()

	inputs := [][]string{
		{"문화·관광"},
		{"없는태그", "복지·건강", "교통·주거"},
		{"관광"},
		nil,
		{""},
	}
	for _, tags := range inputs {
		doc := domain.SummaryDocument{
			Metadata: domain.Metadata{Title: "버스 노선 개편", Date: "2025-07-04", Tags: tags},
			Body:     "시내버스 노선과 지하철 환승 체계를 개편한다.",
		}
		codec.Repair(&doc, "")
		if len(doc.Metadata.Tags) != 1 || !taxonomy.Contains(doc.Metadata.Tags[0]) {
			t.Fatalf("tags %v repaired to %v, want exactly one taxonomy tag", tags, doc.Metadata.Tags)
		}
	}
}

func TestRepairTagChoice(t *testing.T) {
	codec := pressCodec()

	doc := domain.SummaryDocument{Metadata: domain.Metadata{Date: "2025-07-04", Tags: []string{"없는태그", "복지·건강", "교통·주거"}}}
	codec.Repair(&doc, "")
	if doc.Metadata.Tags[0] != "복지·건강" {
		t.Fatalf("first valid tag should win, got %v", doc.Metadata.Tags)
	}

	doc = domain.SummaryDocument{
		Metadata: domain.Metadata{Title: "버스 노선 개편", Date: "2025-07-04", Tags: []string{"교통"}},
		Body:     "시내버스 노선과 지하철 환승 체계를 개편한다.",
	}
	codec.Repair(&doc, "")
	if doc.Metadata.Tags[0] != "교통·주거" {
		t.Fatalf("keyword fallback should choose 교통·주거, got %v", doc.Metadata.Tags)
	}

	doc = domain.SummaryDocument{Metadata: domain.Metadata{Title: "알림", Date: "2025-07-04", Tags: []string{"기타"}}}
	codec.Repair(&doc, "")
	if doc.Metadata.Tags[0] != "행정·소식" {
		t.Fatalf("zero score should use the fallback tag, got %v", doc.Metadata.Tags)
	}
}

func TestRepairDateAndThumbnail(t *testing.T) {
	codec := pressCodec()
	doc := domain.SummaryDocument{Metadata: domain.Metadata{
		Date:             "2025년 7월 4일",
		Tags:             []string{"전체"},
		ThumbnailSummary: strings.Repeat("가", 120),
	}}
	codec.Repair(&doc, "")
	if doc.Metadata.Date != "2025-07-04" {
		t.Fatalf("date not normalized: %q", doc.Metadata.Date)
	}
	if got := len([]rune(doc.Metadata.ThumbnailSummary)); got != 80 {
		t.Fatalf("thumbnail should be trimmed to 80 runes, got %d", got)
	}

	doc = domain.SummaryDocument{Metadata: domain.Metadata{Date: "언젠가", Tags: []string{"전체"}}}
	codec.Repair(&doc, "2025/6/30")
	if doc.Metadata.Date != "2025-06-30" {
		t.Fatalf("fallback date not used: %q", doc.Metadata.Date)
	}

	doc = domain.SummaryDocument{Metadata: domain.Metadata{Date: "", Tags: []string{"전체"}}}
	codec.Repair(&doc, "")
	if doc.Metadata.Date != "2025-07-04" {
		t.Fatalf("clock date not used: %q", doc.Metadata.Date)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "2025-07-04", want: "2025-07-04", ok: true},
		{in: "2025", want: "2025", ok: true},
		{in: "2025년", want: "2025", ok: true},
		{in: "2025.07.04", want: "2025-07-04", ok: true},
		{in: "2025/7/4", want: "2025-07-04", ok: true},
		{in: "2025년 7월 4일", want: "2025-07-04", ok: true},
		{in: "등록일 2025.07.04 09:00", want: "2025-07-04", ok: true},
		{in: "2025-02-30", ok: false},
		{in: "7월 4일", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("NormalizeDate(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
