package convert

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
)

const (
	PDF_FONT_SIZE   = 9.0
	PDF_HEADER_SIZE = 10.0
	PDF_TITLE_SIZE  = 14.0
	PDF_FOOTER_SIZE = 8.0

	PDF_LINE_HEIGHT   = 6.0  // body text line height in mm
	PDF_HEADER_HEIGHT = 8.0  // header band row height in mm
	PDF_TITLE_HEIGHT  = 10.0 // sheet title line height in mm
	PDF_FOOTER_OFFSET = 15.0 // footer band offset above the page bottom in mm
	PDF_CELL_PADDING  = 1.0

	// gofpdf indexes a font's width table directly by rune: 256 entries for
	// the built-in core fonts, 65536 for a registered UTF-8 font. A rune past
	// the table panics, so text is clamped to the active font's range before
	// it reaches the canvas.
	CORE_FONT_MAX_RUNE = 0xFF
	UTF8_FONT_MAX_RUNE = 0xFFFF
)

// sanitizeText replaces every rune the active font cannot map with '?'.
func sanitizeText(text string, maxRune rune) string {
	return strings.Map(func(r rune) rune {
		if r > maxRune {
			return '?'
		}
		return r
	}, text)
}

// layoutState tracks one conversion's page generation: the canvas, the fixed
// column widths of the sheet being laid out, and drawing counters. It is
// owned by a single Convert call and discarded after serialization.
type layoutState struct {
	pdf      *gofpdf.Fpdf
	geo      *PageGeometry
	fontName string
	maxRune  rune

	// vertical space kept clear for the footer band; zero when the document
	// has no footer
	footerReserve float64

	colWidths []float64

	pages        int
	printedCells int
	headerBands  int
}

func newLayoutState(pdf *gofpdf.Fpdf, geo *PageGeometry, fontName string, maxRune rune, footerReserve float64) *layoutState {
	return &layoutState{pdf: pdf, geo: geo, fontName: fontName, maxRune: maxRune, footerReserve: footerReserve}
}

// pageBottom is where body rows must stop: the bottom margin, pushed up when
// a footer band is reserved below it.
func (l *layoutState) pageBottom() float64 {
	bottom := l.geo.Height - l.geo.Bottom
	if reserved := l.geo.Height - l.footerReserve; reserved < bottom {
		bottom = reserved
	}
	return bottom
}

func (l *layoutState) addPage() {
	l.pdf.AddPage()
	l.pages++
}

// columnWidths divides the content width equally between the header columns.
// A sheet without columns still gets one full-width column.
func (l *layoutState) columnWidths(colCount int) []float64 {
	if colCount < 1 {
		colCount = 1
	}
	widths := make([]float64, colCount)
	w := l.geo.ContentWidth() / float64(colCount)
	for i := range widths {
		widths[i] = w
	}
	return widths
}

// truncateToWidth shortens text to fit a cell, appending "..." when cut.
func (l *layoutState) truncateToWidth(text string, colWidth float64) string {
	text = sanitizeText(text, l.maxRune)
	availableWidth := colWidth - PDF_CELL_PADDING
	if l.pdf.GetStringWidth(text) <= availableWidth {
		return text
	}

	suffix := "..."
	suffixWidth := l.pdf.GetStringWidth(suffix)
	runes := []rune(text)
	for len(runes) > 0 {
		if l.pdf.GetStringWidth(string(runes))+suffixWidth <= availableWidth {
			return string(runes) + suffix
		}
		runes = runes[:len(runes)-1]
	}
	return suffix
}

// printHeaderBand draws the column title row: fixed width cells, shaded,
// bordered, one centered line each. Redrawn at the top of every page a
// sheet's rows continue onto.
func (l *layoutState) printHeaderBand(header []string) {
	l.pdf.SetFont(l.fontName, "", PDF_HEADER_SIZE)
	l.pdf.SetFillColor(230, 230, 230)
	l.pdf.SetTextColor(0, 0, 0)

	for ci, w := range l.colWidths {
		text := ""
		if ci < len(header) {
			text = l.truncateToWidth(header[ci], w)
		}
		l.pdf.CellFormat(w, PDF_HEADER_HEIGHT, text, "1", 0, "C", true, 0, "")
	}
	l.pdf.Ln(-1)
	l.headerBands++
}

// wrapRow measures one row at the fixed column widths: each cell's text is
// wrapped to its column, and the row height is the tallest cell's wrapped
// height. Cells shorter than that are bottom-padded by the border only.
func (l *layoutState) wrapRow(row []string) (float64, [][]string) {
	l.pdf.SetFont(l.fontName, "", PDF_FONT_SIZE)

	lines := make([][]string, len(l.colWidths))
	maxLines := 1
	for ci := range l.colWidths {
		if ci >= len(row) || row[ci] == "" {
			continue
		}
		lines[ci] = l.pdf.SplitText(sanitizeText(row[ci], l.maxRune), l.colWidths[ci]-2*PDF_CELL_PADDING)
		if len(lines[ci]) > maxLines {
			maxLines = len(lines[ci])
		}
	}

	return float64(maxLines) * PDF_LINE_HEIGHT, lines
}

// printRow draws one body row as a uniform-height band of bordered cells.
// When the remaining page space can't hold the row, a page break is emitted
// and the header band redrawn before the row. A row taller than a whole page
// gets its own degenerate page rather than being split.
func (l *layoutState) printRow(header, row []string) {
	rowHeight, lines := l.wrapRow(row)

	y := l.pdf.GetY()
	if y+rowHeight > l.pageBottom() && y > l.geo.Top+PDF_HEADER_HEIGHT {
		l.addPage()
		l.printHeaderBand(header)
		l.pdf.SetFont(l.fontName, "", PDF_FONT_SIZE)
		y = l.pdf.GetY()
	}

	x := l.geo.Left
	for ci, w := range l.colWidths {
		l.pdf.Rect(x, y, w, rowHeight, "D")
		for li, line := range lines[ci] {
			l.pdf.SetXY(x, y+float64(li)*PDF_LINE_HEIGHT)
			l.pdf.CellFormat(w, PDF_LINE_HEIGHT, line, "0", 0, "L", false, 0, "")
		}
		if ci < len(row) {
			l.printedCells++
		}
		x += w
	}

	l.pdf.SetXY(l.geo.Left, y+rowHeight)
}

// printSheet lays out one table: fresh page, sheet title line, header band,
// then body rows with page breaks as needed.
func (l *layoutState) printSheet(table SheetTable, logger *zerolog.Logger) *util.Result {
	logger.Debug().Int("rows", len(table.Rows)).Int("cols", table.ColumnCount()).Msg("printing sheet")

	l.addPage()

	l.pdf.SetFont(l.fontName, "", PDF_TITLE_SIZE)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.CellFormat(0, PDF_TITLE_HEIGHT, sanitizeText(table.Name, l.maxRune), "0", 1, "L", false, 0, "")

	if len(table.Rows) == 0 {
		logger.Debug().Msg("sheet is empty, title page only")
		return nil
	}

	l.colWidths = l.columnWidths(table.ColumnCount())
	header := table.Rows[0]
	l.printHeaderBand(header)
	l.printedCells += len(header)

	for _, row := range table.Rows[1:] {
		l.printRow(header, row)
	}

	if err := l.pdf.Error(); err != nil {
		return util.Error("PrintSheet", err)
	}
	return nil
}
