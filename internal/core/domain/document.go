package domain

import (
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusProcessed DocumentStatus = "processed"
	StatusSkipped   DocumentStatus = "skipped"
	StatusExisting  DocumentStatus = "existing"
)

// SourceDocument is a PDF handed over by the crawler or dropped into the
// input directory. The pipeline never mutates it.
type SourceDocument struct {
	Path            string `json:"path" yaml:"path"`
	Filename        string `json:"filename" yaml:"filename"`
	DiscoveredURL   string `json:"url,omitempty" yaml:"url,omitempty"`
	DiscoveredTitle string `json:"title,omitempty" yaml:"title,omitempty"`
	DiscoveredDate  string `json:"date,omitempty" yaml:"date,omitempty"`
}

type ExtractedText struct {
	Text      string
	PageCount int
	CharCount int
}

func (t ExtractedText) Empty() bool {
	return t.Text == ""
}

// UnassignedDepartment is reported when no department could be found.
const UnassignedDepartment = "미지정 부서"

type ContactInfo struct {
	Department string
	Phone      string
}

// Format renders the contact line of a document body.
func (c ContactInfo) Format() string {
	department := strings.TrimSpace(c.Department)
	if department == "" {
		department = UnassignedDepartment
	}
	if c.Phone == "" {
		return department + " 문의"
	}
	return department + " (" + c.Phone + ")"
}

// Metadata is the frontmatter record rendered by the card UI.
type Metadata struct {
	Title            string
	Date             string
	Tags             []string
	ThumbnailSummary string
	SourceURL        string
	Department       string
	SourcePDF        string
}

func (m Metadata) PrimaryTag() string {
	if len(m.Tags) == 0 {
		return ""
	}
	return m.Tags[0]
}

type SummaryDocument struct {
	Metadata Metadata
	Body     string
}

// DocumentResult is the outcome of one pass over a single source PDF.
type DocumentResult struct {
	Filename   string
	Status     DocumentStatus
	OutputPath string
	Error      error
	Duration   time.Duration
	// Attempted is false when an existing output was found before any
	// extraction or completion ran.
	Attempted bool
}

type BatchReport struct {
	Total     int
	Processed int
	Skipped   int
	Existing  int
	Failed    []string
	Outputs   []string
}

func (r *BatchReport) Add(result DocumentResult) {
	r.Total++
	switch result.Status {
	case StatusProcessed:
		r.Processed++
		r.Outputs = append(r.Outputs, result.OutputPath)
	case StatusExisting:
		r.Existing++
	default:
		r.Skipped++
		r.Failed = append(r.Failed, result.Filename)
	}
}

// RunOptions are the knobs of one pipeline invocation.
type RunOptions struct {
	// Limit caps the number of PDFs attempted; PDFs whose output already
	// exists do not count. Zero means all.
	Limit int
	// Force regenerates documents that already have an output.
	Force bool

	CrawlOnly     bool
	SummarizeOnly bool
	MaxPages      int
}
