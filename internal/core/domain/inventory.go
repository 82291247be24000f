package domain

// InventoryRow describes one PDF of the input directory and the output
// that covers it, if any.
type InventoryRow struct {
	PDF        string
	Output     string
	Title      string
	Date       string
	Tag        string
	Department string
	SourceURL  string
}

func (r InventoryRow) Converted() bool {
	return r.Output != ""
}

// Inventory compares the input and output directories.
type Inventory struct {
	Profile            string
	PDFCount           int
	MarkdownCount      int
	Converted          int
	TagCounts          map[string]int
	MissingDepartments []string
	Unconverted        []string
	Rows               []InventoryRow
}

// SuccessRate is the share of PDFs with an output, in percent.
func (i Inventory) SuccessRate() float64 {
	if i.PDFCount == 0 {
		return 0
	}
	return float64(i.Converted) * 100 / float64(i.PDFCount)
}
