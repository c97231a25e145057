package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soderasen-au/go-common/loggers"

	"github.com/soderasen-au/go-sheetpdf/convert"
)

var (
	output      = flag.String("output", "", "Output PDF file path (default: input name with .pdf extension)")
	configFile  = flag.String("config", "", "YAML config file with font and default options")
	paperSize   = flag.String("paper", "", "Paper size: A4, A3 or Letter")
	orientation = flag.String("orientation", "", "Page orientation: portrait or landscape")
	margins     = flag.String("margins", "", "Margins in cm as top,bottom,left,right (e.g. 1.9,1.5,1.2,1.2)")
	footer      = flag.String("footer", "", "Footer template, &P = page number, &N = total pages")
	prefill     = flag.Bool("p", false, "Pre-fill options from the workbook's own print setup")
	verbose     = flag.Bool("v", false, "Verbose logging")
)

func usage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <workbook.xlsx>\n\n", prog)
	flag.PrintDefaults()
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func parseMargins(spec string) (convert.Margins, error) {
	m := convert.Margins{}
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return m, fmt.Errorf("margins need 4 comma-separated values, got %d", len(parts))
	}
	for i, dst := range []*float64{&m.Top, &m.Bottom, &m.Left, &m.Right} {
		if _, err := fmt.Sscanf(strings.TrimSpace(parts[i]), "%f", dst); err != nil {
			return m, fmt.Errorf("margin `%s`: %w", parts[i], err)
		}
	}
	return m, nil
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	cfg := &convert.Config{}
	if *configFile != "" {
		loaded, res := convert.NewConfigFromFile(*configFile)
		if res != nil {
			fatal("%v", res)
		}
		cfg = loaded
	}
	if *verbose {
		cfg.Logger = loggers.CoreDebugLogger
	}
	cfg.SetDefaults()

	data, err := os.ReadFile(input)
	if err != nil {
		fatal("read %s: %v", input, err)
	}

	opts := *cfg.Defaults
	if *prefill {
		opts = convert.ExtractPageSetup(data, cfg.Logger).Overlay(opts)
	}
	if *paperSize != "" {
		opts.PaperSize = convert.PaperSize(*paperSize)
	}
	if *orientation != "" {
		opts.Orientation = convert.Orientation(strings.ToLower(*orientation))
	}
	if *margins != "" {
		m, err := parseMargins(*margins)
		if err != nil {
			fatal("%v", err)
		}
		opts.Margins = m
	}
	if *footer != "" {
		opts.FooterTemplate = *footer
	}

	converter := convert.NewConverter(*cfg)
	result, res := converter.Convert(data, opts)
	if res != nil {
		fatal("%v", res)
	}

	outPath := *output
	if outPath == "" {
		ext := filepath.Ext(input)
		outPath = input[:len(input)-len(ext)] + ".pdf"
	}

	if err := os.WriteFile(outPath, result.PDF, 0644); err != nil {
		fatal("write %s: %v", outPath, err)
	}

	fmt.Printf("%s: %d sheets, %d pages -> %s\n", filepath.Base(input), result.Sheets, result.Pages, outPath)
}
