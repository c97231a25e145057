package convert

import (
	"bytes"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ECMA-376 paper size codes stored in xlsx page setup.
var paperSizeCodes = map[int]PaperSize{
	1: PAPER_LETTER,
	8: PAPER_A3,
	9: PAPER_A4,
}

// PageSetup is the sparse print-setup block recovered from a workbook.
// A nil field means the workbook didn't carry that setting (or it wasn't
// readable); only the modern container-based format is supported, legacy
// binary workbooks yield an empty PageSetup.
type PageSetup struct {
	PaperSize      *PaperSize   `json:"paper_size,omitempty" yaml:"paper_size,omitempty"`
	Orientation    *Orientation `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Margins        *Margins     `json:"margins,omitempty" yaml:"margins,omitempty"`
	FooterTemplate *string      `json:"footer_template,omitempty" yaml:"footer_template,omitempty"`
}

func (s PageSetup) IsEmpty() bool {
	return s.PaperSize == nil && s.Orientation == nil && s.Margins == nil && s.FooterTemplate == nil
}

// Overlay fills base with whatever the page setup recovered.
func (s PageSetup) Overlay(base Options) Options {
	if s.PaperSize != nil {
		base.PaperSize = *s.PaperSize
	}
	if s.Orientation != nil {
		base.Orientation = *s.Orientation
	}
	if s.Margins != nil {
		base.Margins = *s.Margins
	}
	if s.FooterTemplate != nil {
		base.FooterTemplate = *s.FooterTemplate
	}
	return base
}

// ExtractPageSetup reads the stored print setup of the workbook's first
// sheet. It never fails: corrupt bytes, legacy formats or missing records
// all degrade to an empty PageSetup, the caller falls back to defaults.
func ExtractPageSetup(data []byte, logger *zerolog.Logger) PageSetup {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	setup := PageSetup{}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		logger.Debug().Err(err).Msg("workbook not readable, no page setup")
		return setup
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return setup
	}
	sheet := sheets[0]

	if pageLayout, err := f.GetPageLayout(sheet); err == nil {
		if pageLayout.Size != nil {
			paper, ok := paperSizeCodes[*pageLayout.Size]
			if !ok {
				logger.Debug().Int("code", *pageLayout.Size).Msg("unknown paper size code, using A4")
				paper = PAPER_A4
			}
			setup.PaperSize = &paper
		}
		if pageLayout.Orientation != nil {
			orientation := Orientation(strings.ToLower(*pageLayout.Orientation))
			if orientation.IsValid() {
				setup.Orientation = &orientation
			}
		}
	} else {
		logger.Debug().Err(err).Msg("GetPageLayout failed")
	}

	if pageMargins, err := f.GetPageMargins(sheet); err == nil {
		margins := DefaultMargins()
		got := false
		assign := func(dst *float64, src *float64) {
			if src != nil {
				*dst = inchToCm(*src)
				got = true
			}
		}
		assign(&margins.Top, pageMargins.Top)
		assign(&margins.Bottom, pageMargins.Bottom)
		assign(&margins.Left, pageMargins.Left)
		assign(&margins.Right, pageMargins.Right)
		if got {
			setup.Margins = &margins
		}
	} else {
		logger.Debug().Err(err).Msg("GetPageMargins failed")
	}

	if headerFooter, err := f.GetHeaderFooter(sheet); err == nil && headerFooter != nil {
		if footer := footerCenterSection(headerFooter.OddFooter); footer != "" {
			setup.FooterTemplate = &footer
		}
	} else if err != nil {
		logger.Debug().Err(err).Msg("GetHeaderFooter failed")
	}

	return setup
}

// PrefillOptions is the settings-form pre-fill entry point: defaults overlaid
// with whatever print setup the workbook carries.
func PrefillOptions(data []byte, logger *zerolog.Logger) Options {
	return ExtractPageSetup(data, logger).Overlay(DefaultOptions())
}

// stored in inches, working unit is cm, rounded to one decimal
func inchToCm(v float64) float64 {
	return math.Round(v*CM_PER_INCH*10.0) / 10.0
}

// footerCenterSection extracts the center section from an Excel footer
// definition ("&LLeft&CCenter&RRight"). A definition without section
// markers is taken as-is.
func footerCenterSection(def string) string {
	def = strings.TrimSpace(def)
	if def == "" {
		return ""
	}
	if !strings.ContainsAny(def, "&") || (!strings.Contains(def, "&L") && !strings.Contains(def, "&C") && !strings.Contains(def, "&R")) {
		return def
	}

	start := strings.Index(def, "&C")
	if start < 0 {
		return ""
	}
	section := def[start+2:]
	for _, marker := range []string{"&L", "&R"} {
		if end := strings.Index(section, marker); end >= 0 {
			section = section[:end]
		}
	}
	return strings.TrimSpace(section)
}
