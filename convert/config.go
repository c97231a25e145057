package convert

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/util"
	"gopkg.in/yaml.v3"
)

const DEFAULT_FONT_NAME = "Helvetica"

// Config is the converter's static setup: the Unicode font resource and the
// default conversion options. It is shared read-only between conversions.
type Config struct {
	// TTF file registered as the document font. When empty the built-in
	// Helvetica is used, which only covers cp1252 text.
	FontFile string `json:"font_file,omitempty" yaml:"font_file,omitempty"`
	FontName string `json:"font_name,omitempty" yaml:"font_name,omitempty"`

	Defaults *Options `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	Logger *zerolog.Logger `json:"-" yaml:"-"`
}

func (c *Config) SetDefaults() {
	if c.FontName == "" {
		if c.FontFile != "" {
			c.FontName = "WorkbookFont"
		} else {
			c.FontName = DEFAULT_FONT_NAME
		}
	}
	if c.Defaults == nil {
		defaults := DefaultOptions()
		c.Defaults = &defaults
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// Validate checks the font resource before any layout work starts; a
// configured font file that doesn't exist is a fatal configuration error.
func (c *Config) Validate() *util.Result {
	if c.FontFile != "" {
		if _, err := os.Stat(c.FontFile); err != nil {
			return util.Error("CheckFont", err)
		}
	}
	return nil
}

func NewConfigFromFile(path string) (*Config, *util.Result) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, util.Error("ReadConfigFile", err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, util.Error("ParseConfigFile", err)
	}
	cfg.SetDefaults()

	return &cfg, nil
}
