package convert

import (
	"fmt"

	"github.com/soderasen-au/go-common/util"
)

type PaperSize string

type Orientation string

const (
	PAPER_A4     PaperSize = "A4"
	PAPER_A3     PaperSize = "A3"
	PAPER_LETTER PaperSize = "Letter"

	ORIENTATION_PORTRAIT  Orientation = "portrait"
	ORIENTATION_LANDSCAPE Orientation = "landscape"

	// smallest margin the settings form accepts, in cm
	MIN_MARGIN_CM = 0.5

	CM_PER_INCH = 2.54
)

// paper dimensions in mm, portrait
var paperDimensions = map[PaperSize][2]float64{
	PAPER_A4:     {210.0, 297.0},
	PAPER_A3:     {297.0, 420.0},
	PAPER_LETTER: {215.9, 279.4},
}

func (p PaperSize) IsValid() bool {
	_, ok := paperDimensions[p]
	return ok
}

func (p *PaperSize) MaybeDefault() {
	if !p.IsValid() {
		*p = PAPER_A4
	}
}

func (o Orientation) IsValid() bool {
	return o == ORIENTATION_PORTRAIT || o == ORIENTATION_LANDSCAPE
}

func (o *Orientation) MaybeDefault() {
	if !o.IsValid() {
		*o = ORIENTATION_PORTRAIT
	}
}

// Margins are in centimeters.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
	Right  float64 `json:"right" yaml:"right"`
}

func DefaultMargins() Margins {
	return Margins{Top: 1.9, Bottom: 1.5, Left: 1.2, Right: 1.2}
}

func (m Margins) Validate() *util.Result {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"top", m.Top}, {"bottom", m.Bottom}, {"left", m.Left}, {"right", m.Right},
	} {
		if v.value < MIN_MARGIN_CM {
			return util.MsgError("ValidateMargins", fmt.Sprintf("%s margin %.1fcm is below minimum %.1fcm", v.name, v.value, MIN_MARGIN_CM))
		}
	}
	return nil
}

// Options is the validated configuration for one conversion.
// It's immutable for the duration of the conversion.
type Options struct {
	PaperSize      PaperSize   `json:"paper_size,omitempty" yaml:"paper_size,omitempty"`
	Orientation    Orientation `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Margins        Margins     `json:"margins,omitempty" yaml:"margins,omitempty"`
	FooterTemplate string      `json:"footer_template,omitempty" yaml:"footer_template,omitempty"`
}

func DefaultOptions() Options {
	return Options{
		PaperSize:      PAPER_A4,
		Orientation:    ORIENTATION_PORTRAIT,
		Margins:        DefaultMargins(),
		FooterTemplate: DefaultFooterTemplate(),
	}
}

func (o Options) Validate() *util.Result {
	if !o.PaperSize.IsValid() {
		return util.MsgError("ValidateOptions", fmt.Sprintf("invalid paper size `%s`", o.PaperSize))
	}
	if !o.Orientation.IsValid() {
		return util.MsgError("ValidateOptions", fmt.Sprintf("invalid orientation `%s`", o.Orientation))
	}
	if res := o.Margins.Validate(); res != nil {
		return res.With("ValidateOptions")
	}
	return nil
}

// PageGeometry is the page canvas derived from Options: paper dimensions
// after orientation is applied, and margins, all in mm.
type PageGeometry struct {
	Width  float64
	Height float64
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

func (g PageGeometry) ContentWidth() float64 {
	return g.Width - g.Left - g.Right
}

func (g PageGeometry) ContentHeight() float64 {
	return g.Height - g.Top - g.Bottom
}

// Geometry validates the options and computes the drawable page area.
// Margins that leave no content area are a fatal error.
func (o Options) Geometry() (*PageGeometry, *util.Result) {
	if res := o.Validate(); res != nil {
		return nil, res.With("Geometry")
	}

	dims := paperDimensions[o.PaperSize]
	g := PageGeometry{
		Width:  dims[0],
		Height: dims[1],
		Top:    o.Margins.Top * 10.0,
		Bottom: o.Margins.Bottom * 10.0,
		Left:   o.Margins.Left * 10.0,
		Right:  o.Margins.Right * 10.0,
	}
	if o.Orientation == ORIENTATION_LANDSCAPE {
		g.Width, g.Height = g.Height, g.Width
	}

	if g.ContentWidth() <= 0 {
		return nil, util.MsgError("CheckGeometry", fmt.Sprintf("margins leave no horizontal space on %s paper", o.PaperSize))
	}
	if g.ContentHeight() <= 0 {
		return nil, util.MsgError("CheckGeometry", fmt.Sprintf("margins leave no vertical space on %s paper", o.PaperSize))
	}

	return &g, nil
}
