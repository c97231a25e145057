package convert

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
)

func newTestLayout(t *testing.T) *layoutState {
	t.Helper()

	opts := DefaultOptions()
	geo, res := opts.Geometry()
	if res != nil {
		t.Fatalf("Geometry: %s", res.Error())
	}

	pdf := gofpdf.New("P", "mm", string(opts.PaperSize), "")
	pdf.SetMargins(geo.Left, geo.Top, geo.Right)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(DEFAULT_FONT_NAME, "", PDF_FONT_SIZE)

	return newLayoutState(pdf, geo, DEFAULT_FONT_NAME, CORE_FONT_MAX_RUNE, 0)
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxRune  rune
		expected string
	}{
		{"ascii core", "plain text", CORE_FONT_MAX_RUNE, "plain text"},
		{"latin-1 core", "café", CORE_FONT_MAX_RUNE, "café"},
		{"cjk core", "中文內容", CORE_FONT_MAX_RUNE, "????"},
		{"curly quotes core", "a “quote”", CORE_FONT_MAX_RUNE, "a ?quote?"},
		{"cjk utf8", "中文內容", UTF8_FONT_MAX_RUNE, "中文內容"},
		{"cyrillic utf8", "данные", UTF8_FONT_MAX_RUNE, "данные"},
		{"emoji beyond bmp utf8", "ok 😀", UTF8_FONT_MAX_RUNE, "ok ?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeText(tt.in, tt.maxRune); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

// text outside the core font's width table must not reach SplitText or
// GetStringWidth unmapped; gofpdf panics on it instead of erroring.
func TestWrapRow_NonLatinText(t *testing.T) {
	l := newTestLayout(t)
	l.pdf.AddPage()
	l.colWidths = l.columnWidths(3)

	height, lines := l.wrapRow([]string{"中文內容", "данные", "ascii"})
	if height < PDF_LINE_HEIGHT {
		t.Errorf("expected at least one line of height, got %.1f", height)
	}
	if len(lines[0]) == 0 || len(lines[1]) == 0 {
		t.Error("sanitized cells must still produce wrapped lines")
	}
	if err := l.pdf.Error(); err != nil {
		t.Fatalf("pdf error after non-latin row: %v", err)
	}
}

func TestPrintSheet_NonLatinText(t *testing.T) {
	l := newTestLayout(t)
	logger := zerolog.Nop()

	table := NewSheetTable("報表", [][]string{
		{"ID", "名稱"},
		{"1", "中文內容"},
		{"2", "données"},
	})
	if res := l.printSheet(table, &logger); res != nil {
		t.Fatalf("printSheet: %s", res.Error())
	}
	if l.printedCells != 6 {
		t.Errorf("expected 6 printed cells, got %d", l.printedCells)
	}
}

func TestPageBottom_FooterReserve(t *testing.T) {
	opts := DefaultOptions()
	opts.Margins.Bottom = 0.5
	geo, res := opts.Geometry()
	if res != nil {
		t.Fatalf("Geometry: %s", res.Error())
	}

	pdf := gofpdf.New("P", "mm", string(opts.PaperSize), "")

	withFooter := newLayoutState(pdf, geo, DEFAULT_FONT_NAME, CORE_FONT_MAX_RUNE, PDF_FOOTER_OFFSET)
	if withFooter.pageBottom() != geo.Height-PDF_FOOTER_OFFSET {
		t.Errorf("with a footer, body rows must stop above the footer band: got %.1f", withFooter.pageBottom())
	}

	noFooter := newLayoutState(pdf, geo, DEFAULT_FONT_NAME, CORE_FONT_MAX_RUNE, 0)
	if noFooter.pageBottom() != geo.Height-geo.Bottom {
		t.Errorf("without a footer, body rows run to the bottom margin: got %.1f", noFooter.pageBottom())
	}

	wide := DefaultOptions()
	wide.Margins.Bottom = 2.5
	wideGeo, res := wide.Geometry()
	if res != nil {
		t.Fatalf("Geometry: %s", res.Error())
	}
	deep := newLayoutState(pdf, wideGeo, DEFAULT_FONT_NAME, CORE_FONT_MAX_RUNE, PDF_FOOTER_OFFSET)
	if deep.pageBottom() != wideGeo.Height-wideGeo.Bottom {
		t.Errorf("a margin deeper than the footer band keeps its own bottom: got %.1f", deep.pageBottom())
	}
}

func TestColumnWidths(t *testing.T) {
	l := newTestLayout(t)

	for _, colCount := range []int{1, 3, 7, 12} {
		widths := l.columnWidths(colCount)
		if len(widths) != colCount {
			t.Fatalf("expected %d widths, got %d", colCount, len(widths))
		}
		sum := 0.0
		for i, w := range widths {
			if w != widths[0] {
				t.Errorf("%d columns: width %d differs from width 0", colCount, i)
			}
			sum += w
		}
		if math.Abs(sum-l.geo.ContentWidth()) > 0.001 {
			t.Errorf("%d columns: widths sum %.3f, content width %.3f", colCount, sum, l.geo.ContentWidth())
		}
	}
}

func TestColumnWidths_NoColumns(t *testing.T) {
	l := newTestLayout(t)

	widths := l.columnWidths(0)
	if len(widths) != 1 {
		t.Fatalf("expected a single full-width column, got %d", len(widths))
	}
	if math.Abs(widths[0]-l.geo.ContentWidth()) > 0.001 {
		t.Errorf("expected full content width %.3f, got %.3f", l.geo.ContentWidth(), widths[0])
	}
}

func TestTruncateToWidth(t *testing.T) {
	l := newTestLayout(t)
	l.pdf.AddPage()
	colWidth := 30.0

	short := l.truncateToWidth("id", colWidth)
	if short != "id" {
		t.Errorf("short text should pass through, got '%s'", short)
	}

	long := l.truncateToWidth(strings.Repeat("measurement", 10), colWidth)
	if !strings.HasSuffix(long, "...") {
		t.Errorf("truncated text should end with ellipsis, got '%s'", long)
	}
	if l.pdf.GetStringWidth(long) > colWidth-PDF_CELL_PADDING {
		t.Errorf("truncated text is still wider than the cell")
	}
}

func TestWrapRow(t *testing.T) {
	l := newTestLayout(t)
	l.pdf.AddPage()
	l.colWidths = l.columnWidths(3)

	height, lines := l.wrapRow([]string{"a", "b", "c"})
	if height != PDF_LINE_HEIGHT {
		t.Errorf("single-line row: expected height %.1f, got %.1f", PDF_LINE_HEIGHT, height)
	}
	if len(lines) != 3 {
		t.Errorf("expected 3 cells of lines, got %d", len(lines))
	}

	height, lines = l.wrapRow([]string{"a", strings.Repeat("long running narrative ", 20), "c"})
	if height <= PDF_LINE_HEIGHT {
		t.Errorf("wrapped row: expected height above one line, got %.1f", height)
	}
	if len(lines[1]) < 2 {
		t.Errorf("expected the long cell to wrap onto several lines, got %d", len(lines[1]))
	}
	if height != float64(len(lines[1]))*PDF_LINE_HEIGHT {
		t.Errorf("row height %.1f doesn't match tallest cell (%d lines)", height, len(lines[1]))
	}
}

func TestWrapRow_ShortRow(t *testing.T) {
	l := newTestLayout(t)
	l.pdf.AddPage()
	l.colWidths = l.columnWidths(4)

	// rows shorter than the header still measure as one line
	height, lines := l.wrapRow([]string{"only one"})
	if height != PDF_LINE_HEIGHT {
		t.Errorf("expected one line height, got %.1f", height)
	}
	if len(lines) != 4 {
		t.Errorf("expected line slots for all 4 columns, got %d", len(lines))
	}
}

func TestPrintSheet_SinglePage(t *testing.T) {
	l := newTestLayout(t)
	logger := zerolog.Nop()

	table := NewSheetTable("Small", [][]string{
		{"ID", "Name", "Status"},
		{"1", "alpha", "ok"},
		{"2", "beta", "ok"},
	})
	if res := l.printSheet(table, &logger); res != nil {
		t.Fatalf("printSheet: %s", res.Error())
	}

	if l.pages != 1 {
		t.Errorf("expected 1 page, got %d", l.pages)
	}
	if l.headerBands != 1 {
		t.Errorf("expected 1 header band, got %d", l.headerBands)
	}
	if l.printedCells != 9 {
		t.Errorf("expected 9 printed cells, got %d", l.printedCells)
	}
}

func TestPrintSheet_PageBreakRepeatsHeader(t *testing.T) {
	l := newTestLayout(t)
	logger := zerolog.Nop()

	rows := [][]string{{"ID", "Name", "Value"}}
	for i := 1; i <= 60; i++ {
		rows = append(rows, []string{fmt.Sprintf("%d", i), fmt.Sprintf("row %d", i), "x"})
	}
	if res := l.printSheet(NewSheetTable("Long", rows), &logger); res != nil {
		t.Fatalf("printSheet: %s", res.Error())
	}

	if l.pages < 2 {
		t.Fatalf("60 rows at %.0fmm each must overflow one A4 page, got %d page(s)", PDF_LINE_HEIGHT, l.pages)
	}
	if l.headerBands != l.pages {
		t.Errorf("header band must repeat on every page: %d pages, %d bands", l.pages, l.headerBands)
	}
	if l.printedCells != 61*3 {
		t.Errorf("expected %d printed cells, got %d", 61*3, l.printedCells)
	}
}

func TestPrintSheet_EmptySheet(t *testing.T) {
	l := newTestLayout(t)
	logger := zerolog.Nop()

	if res := l.printSheet(NewSheetTable("Empty", nil), &logger); res != nil {
		t.Fatalf("printSheet: %s", res.Error())
	}

	if l.pages != 1 {
		t.Errorf("empty sheet still gets its title page, got %d pages", l.pages)
	}
	if l.headerBands != 0 {
		t.Errorf("empty sheet has no header band, got %d", l.headerBands)
	}
	if l.printedCells != 0 {
		t.Errorf("empty sheet prints no cells, got %d", l.printedCells)
	}
}

func TestPrintRow_OversizedRowGetsOwnPage(t *testing.T) {
	l := newTestLayout(t)
	logger := zerolog.Nop()

	// a single cell whose wrapped height exceeds a whole A4 content area
	tall := strings.Repeat("overflowing paragraph of cell text ", 120)
	rows := [][]string{
		{"ID", "Note"},
		{"1", "short"},
		{"2", tall},
		{"3", "short again"},
	}
	if res := l.printSheet(NewSheetTable("Tall", rows), &logger); res != nil {
		t.Fatalf("printSheet: %s", res.Error())
	}

	// the oversized row breaks onto its own page and the sheet continues
	// afterwards; layout must terminate rather than loop on the break check
	if l.pages < 2 {
		t.Errorf("expected the oversized row to force a page break, got %d page(s)", l.pages)
	}
	if l.printedCells != 8 {
		t.Errorf("expected 8 printed cells, got %d", l.printedCells)
	}
	if err := l.pdf.Error(); err != nil {
		t.Fatalf("pdf error after oversized row: %v", err)
	}
}
