package convert

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/soderasen-au/go-common/util"
)

// Result is one finished conversion: the serialized document plus layout
// counters.
type Result struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	PDF          []byte `json:"-" yaml:"-"`
	Pages        int    `json:"pages,omitempty" yaml:"pages,omitempty"`
	Sheets       int    `json:"sheets,omitempty" yaml:"sheets,omitempty"`
	PrintedCells int    `json:"printed_cells,omitempty" yaml:"printed_cells,omitempty"`
}

// Converter turns workbook bytes into a paginated PDF. It holds only
// immutable setup; every Convert call allocates its own layout state, so a
// single Converter is safe to share between concurrent callers.
type Converter struct {
	cfg Config
}

func NewConverter(cfg Config) *Converter {
	cfg.SetDefaults()
	return &Converter{cfg: cfg}
}

// Convert runs the whole pipeline: font check, geometry validation, sheet
// loading, per-sheet layout, footer finalization, serialization. Any failure
// aborts the conversion with no output bytes.
func (c *Converter) Convert(data []byte, opts Options) (*Result, *util.Result) {
	result := &Result{ID: uuid.NewString()}
	logger := c.cfg.Logger.With().Str("conversion", result.ID).Logger()

	if res := c.cfg.Validate(); res != nil {
		logger.Err(res).Msg("font resource check failed")
		return nil, res.With("Convert")
	}

	geo, res := opts.Geometry()
	if res != nil {
		logger.Err(res).Msg("invalid page geometry")
		return nil, res.With("Convert")
	}

	tables, res := LoadWorkbook(data)
	if res != nil {
		logger.Err(res).Msg("workbook not loadable")
		return nil, res.With("Convert")
	}
	result.Sheets = len(tables)

	orientation := "P"
	if opts.Orientation == ORIENTATION_LANDSCAPE {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "mm", string(opts.PaperSize), "")
	pdf.SetMargins(geo.Left, geo.Top, geo.Right)
	pdf.SetAutoPageBreak(false, 0)

	maxRune := rune(CORE_FONT_MAX_RUNE)
	if c.cfg.FontFile != "" {
		pdf.AddUTF8Font(c.cfg.FontName, "", c.cfg.FontFile)
		maxRune = UTF8_FONT_MAX_RUNE
	}
	pdf.SetFont(c.cfg.FontName, "", PDF_FONT_SIZE)
	if err := pdf.Error(); err != nil {
		return nil, util.Error("LoadFont", err)
	}

	footerReserve := 0.0
	if opts.FooterTemplate != "" {
		footerReserve = PDF_FOOTER_OFFSET
	}
	layout := newLayoutState(pdf, geo, c.cfg.FontName, maxRune, footerReserve)
	for si, table := range tables {
		sheetLogger := logger.With().Int("sheet", si).Str("name", table.Name).Logger()
		if res := layout.printSheet(table, &sheetLogger); res != nil {
			sheetLogger.Err(res).Msg("sheet layout failed")
			return nil, res.With(fmt.Sprintf("printSheet[%d]", si))
		}
	}

	if res := c.finalizeFooters(pdf, geo, opts.FooterTemplate, maxRune); res != nil {
		return nil, res.With("Convert")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, util.Error("SerializePDF", err)
	}

	result.PDF = buf.Bytes()
	result.Pages = layout.pages
	result.PrintedCells = layout.printedCells
	logger.Info().
		Int("pages", result.Pages).
		Int("sheets", result.Sheets).
		Int("cells", result.PrintedCells).
		Msg("conversion finished")

	return result, nil
}

// finalizeFooters runs the second phase of footer rendering: once every page
// exists the total page count is known, so each already-emitted page gets its
// footer template expanded with concrete numbers.
func (c *Converter) finalizeFooters(pdf *gofpdf.Fpdf, geo *PageGeometry, tpl string, maxRune rune) *util.Result {
	if tpl == "" {
		return nil
	}

	totalPages := pdf.PageCount()
	for pageNo := 1; pageNo <= totalPages; pageNo++ {
		pdf.SetPage(pageNo)
		pdf.SetFont(c.cfg.FontName, "", PDF_FOOTER_SIZE)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(geo.Left, geo.Height-PDF_FOOTER_OFFSET)
		footer := sanitizeText(RenderFooter(tpl, pageNo, totalPages), maxRune)
		pdf.CellFormat(0, PDF_LINE_HEIGHT, footer, "0", 0, "C", false, 0, "")
	}
	pdf.SetPage(totalPages)

	if err := pdf.Error(); err != nil {
		return util.Error("FinalizeFooters", err)
	}
	return nil
}
