package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

type rendererFake struct {
	calls int
	page  int
	scale float64
	err   error
}

func (f *rendererFake) RenderPage(_ context.Context, _ string, page int, scale float64) ([]byte, error) {
	f.calls++
	f.page = page
	f.scale = scale
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

type recognizerFake struct {
	text      string
	err       error
	languages []string
}

func (f *recognizerFake) Recognize(_ context.Context, _ []byte, languages []string) (string, error) {
	f.languages = languages
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func lines(text string) []string {
	return strings.Split(text, "\n")
}

func TestDepartmentLabelStrategy(t *testing.T) {
	match, ok := findDepartmentLabel(lines("보도자료\n담당부서: 일자리경제과\n담당자 김철수"))
	if !ok || match.Department != "일자리경제과" {
		t.Fatalf("same-line label not matched: %+v %v", match, ok)
	}

	match, ok = findDepartmentLabel(lines("부서명\n\n관광마이스국 관광정책과  ☎ 051-888-5111"))
	if !ok || match.Department != "관광마이스국" || match.Phone != "051-888-5111" {
		t.Fatalf("next-line label not matched: %+v %v", match, ok)
	}

	if _, ok := findDepartmentLabel(lines("담당자 김철수 051-888-1234")); ok {
		t.Fatalf("no department label should not match")
	}
}

func TestResponsiblePersonBeatsSeniorLine(t *testing.T) {
	page := lines("과장 홍길동 051-888-1000\n팀장 이영희 051-888-1100\n담당자 김철수 051-888-1234")

	match, ok := findResponsiblePerson(page)
	if !ok || match.Phone != "051-888-1234" {
		t.Fatalf("responsible person not preferred: %+v %v", match, ok)
	}
}

func TestResponsiblePersonSharedLine(t *testing.T) {
	match, ok := findResponsiblePerson(lines("과장 홍길동 051-888-1000 담당 김철수 051-888-1234"))
	if !ok || match.Phone != "051-888-1234" {
		t.Fatalf("phone after the responsible label expected: %+v %v", match, ok)
	}
}

func TestLastPhoneLineStrategy(t *testing.T) {
	match, ok := findLastPhoneLine(lines("관광정책과 051-888-1111\n축제팀 051-888-2222"))
	if !ok || match.Department != "축제팀" || match.Phone != "051-888-2222" {
		t.Fatalf("last phone line not chosen: %+v %v", match, ok)
	}

	if _, ok := findLastPhoneLine(lines("관광정책과 051-888-1111")); ok {
		t.Fatalf("a single phone line is left to first-phone")
	}
	if _, ok := findLastPhoneLine(lines("담당 051-888-1111\n축제팀 051-888-2222")); ok {
		t.Fatalf("labelled lines are left to responsible-person")
	}
}

func TestFirstPhoneStrategy(t *testing.T) {
	match, ok := findFirstPhone(lines("자세한 사항은\n문의 051 888 3333 으로"))
	if !ok || match.Phone != "051-888-3333" {
		t.Fatalf("first phone not found: %+v %v", match, ok)
	}
	if _, ok := findFirstPhone(lines("전화번호 없음 2025.07.04")); ok {
		t.Fatalf("dates must not look like phones")
	}
}

func TestContactFallbackChain(t *testing.T) {
	extractor := New(nil, nil, Options{}, nil)

	info := extractor.Extract(context.Background(), "a.pdf", "주무관 김철수 ☎ 051-888-1234")
	if info.Phone != "051-888-1234" {
		t.Fatalf("phone not recovered: %+v", info)
	}
	if info.Department != domain.UnassignedDepartment {
		t.Fatalf("department placeholder expected, got %q", info.Department)
	}
	if got := info.Format(); got != "미지정 부서 (051-888-1234)" {
		t.Fatalf("unexpected format: %q", got)
	}

	info = extractor.Extract(context.Background(), "a.pdf", "연락처 없음")
	if got := info.Format(); got != "미지정 부서 문의" {
		t.Fatalf("unexpected placeholder: %q", got)
	}
}

func TestExtractCombinesStrategies(t *testing.T) {
	info, strategy := Apply(DefaultStrategies(), "담당부서: 일자리경제과\n과장 홍길동 051-888-1000\n담당자 김철수 051-888-1234")
	if info.Department != "일자리경제과" || info.Phone != "051-888-1234" {
		t.Fatalf("unexpected contact: %+v", info)
	}
	if strategy != "responsible-person" {
		t.Fatalf("unexpected strategy: %s", strategy)
	}
}

func TestExtractPressHeaderPrefersResponsiblePerson(t *testing.T) {
	extractor := New(nil, nil, Options{}, nil)

	cases := []struct {
		name string
		text string
	}{
		{
			name: "single line",
			text: "담당부서 청년정책과 과장 홍길동 051-888-1111 / 팀장 김철수 051-888-2222 / 담당자 이영희 051-888-3333",
		},
		{
			name: "table rows",
			text: "담당부서 청년정책과\n과장 홍길동 051-888-1111\n팀장 김철수 051-888-2222\n담당자 이영희 051-888-3333",
		},
		{
			name: "label row carries the senior",
			text: "담당부서 청년정책과 과장 홍길동 051-888-1111\n담당자 이영희 051-888-3333",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := extractor.Extract(context.Background(), "a.pdf", tc.text)
			if info.Department != "청년정책과" || info.Phone != "051-888-3333" {
				t.Fatalf("unexpected contact: %+v", info)
			}
		})
	}
}

func TestExtractFallsBackToOCR(t *testing.T) {
	renderer := &rendererFake{}
	recognizer := &recognizerFake{text: "담당부서 청년정책과\n담당자 051-888-9999"}
	extractor := New(renderer, recognizer, Options{}, nil)

	info := extractor.Extract(context.Background(), "a.pdf", "본문에는 연락처가 없습니다")
	if info.Department != "청년정책과" || info.Phone != "051-888-9999" {
		t.Fatalf("OCR contact not used: %+v", info)
	}
	if renderer.page != 0 || renderer.scale != 3.0 {
		t.Fatalf("unexpected render call: page=%d scale=%v", renderer.page, renderer.scale)
	}
	if strings.Join(recognizer.languages, "+") != "kor+eng" {
		t.Fatalf("unexpected OCR languages: %v", recognizer.languages)
	}
}

func TestExtractSkipsOCRWhenTextHasPhone(t *testing.T) {
	renderer := &rendererFake{}
	extractor := New(renderer, &recognizerFake{}, Options{}, nil)

	info := extractor.Extract(context.Background(), "a.pdf", "문의: 051-888-1234")
	if info.Phone != "051-888-1234" {
		t.Fatalf("unexpected contact: %+v", info)
	}
	if renderer.calls != 0 {
		t.Fatalf("OCR must not run when the text layer has a phone")
	}
}

func TestExtractNeverFailsOnOCRErrors(t *testing.T) {
	textDept := "담당부서: 문화예술과"

	info := New(&rendererFake{err: errors.New("mupdf")}, &recognizerFake{}, Options{}, nil).
		Extract(context.Background(), "a.pdf", textDept)
	if info.Department != "문화예술과" || info.Phone != "" {
		t.Fatalf("render failure should keep text-layer result: %+v", info)
	}

	info = New(&rendererFake{}, &recognizerFake{err: errors.New("tesseract")}, Options{}, nil).
		Extract(context.Background(), "a.pdf", "")
	if info != (domain.ContactInfo{Department: domain.UnassignedDepartment}) {
		t.Fatalf("OCR failure should yield the placeholder: %+v", info)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"051-888-1234":  "051-888-1234",
		"051) 888-1234": "051-888-1234",
		"02.123.4567":   "02-123-4567",
		"02-1234-5678":  "02-1234-5678",
		"010 1234 5678": "010-1234-5678",
		"12345":         "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
