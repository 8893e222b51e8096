// Package config loads the dataminer settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the settings file looked up when no path is given.
const DefaultConfigFile = "dataminer.yaml"

// Database file names inside the output folder.
const (
	CharacterDBFile = "characters.sqlite"
	TextDBDir       = "text"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Locales is the full set of text locales the game ships.
var Locales = []string{"de", "en", "es", "fr", "it", "ja", "pt", "zh_hans", "zh_hant"}

// Config holds the dataminer settings (read-only after Load).
type Config struct {
	Datamining DataminingConfig `yaml:"datamining"`
	Character  CharacterConfig  `yaml:"character"`
	Text       TextConfig       `yaml:"text"`
	Check      CheckConfig      `yaml:"check"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DataminingConfig holds the input and output locations and pipeline sizing.
type DataminingConfig struct {
	OutputFolder     string `yaml:"output_folder"`
	ExtractionFolder string `yaml:"extraction_folder"`

	// BatchSize is the flush threshold for both entity buckets and text requests.
	BatchSize int `yaml:"batch_size"`

	// RequestBuffer is the capacity of the name request channel.
	RequestBuffer int `yaml:"request_buffer"`
}

// CharacterConfig locates the character tables under the extraction folder.
type CharacterConfig struct {
	Root  string         `yaml:"root"`
	Rules CharacterRules `yaml:"rules"`
}

// CharacterRules are file name patterns for each character table dump.
type CharacterRules struct {
	Base   string `yaml:"chara_base"`
	Param  string `yaml:"chara_param"`
	Growth string `yaml:"growth_table"`
}

// TextConfig locates the localization tables. Each locale has its own
// directory under Root.
type TextConfig struct {
	Root    string    `yaml:"root"`
	Locales []string  `yaml:"locales"`
	Rules   TextRules `yaml:"rules"`
}

// TextRules are file name patterns for each localization table dump.
type TextRules struct {
	Names        string `yaml:"chara_name"`
	RomaNames    string `yaml:"chara_name_roma"`
	Descriptions string `yaml:"chara_description"`
	Series       string `yaml:"series_name"`
}

// CheckConfig configures the consistency checks run by "dataminer check".
type CheckConfig struct {
	// ReferenceLocale must hold a name for every persisted character.
	ReferenceLocale string `yaml:"reference_locale"`
	// CompareLocale's romanized names are compared against ReferenceLocale's.
	CompareLocale string `yaml:"compare_locale"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Datamining: DataminingConfig{
			OutputFolder:     "output",
			ExtractionFolder: "extracted",
			BatchSize:        1000,
			RequestBuffer:    4096,
		},
		Character: CharacterConfig{
			Root: "data/common/gamedata/character",
			Rules: CharacterRules{
				Base:   `^chara_base_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
				Param:  `^chara_param_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
				Growth: `growth_table_config_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
			},
		},
		Text: TextConfig{
			Root:    "data/common/text",
			Locales: slices.Clone(Locales),
			Rules: TextRules{
				Names:        `^chara_text_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
				RomaNames:    `^chara_text_roma_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
				Descriptions: `^chara_desc_text_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
				Series:       `^series_text_\d+\.\d+\.\d+\.\d+\.cfg\.bin\.json$`,
			},
		},
		Check: CheckConfig{
			ReferenceLocale: "en",
			CompareLocale:   "de",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the settings file at path, layered over Default, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'dataminer init-config' first)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required values are set, sizes are positive, locales
// are known and every rule compiles.
func (c *Config) Validate() error {
	var errs []error
	if c.Datamining.OutputFolder == "" {
		errs = append(errs, errors.New("datamining.output_folder is empty"))
	}
	if c.Datamining.ExtractionFolder == "" {
		errs = append(errs, errors.New("datamining.extraction_folder is empty"))
	}
	if c.Datamining.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("datamining.batch_size must be positive, got %d", c.Datamining.BatchSize))
	}
	if c.Datamining.RequestBuffer < 0 {
		errs = append(errs, fmt.Errorf("datamining.request_buffer must not be negative, got %d", c.Datamining.RequestBuffer))
	}

	if len(c.Text.Locales) == 0 {
		errs = append(errs, errors.New("text.locales is empty"))
	}
	for _, l := range c.Text.Locales {
		if !slices.Contains(Locales, l) {
			errs = append(errs, fmt.Errorf("text.locales: unknown locale %q", l))
		}
	}
	for _, l := range []string{c.Check.ReferenceLocale, c.Check.CompareLocale} {
		if l != "" && !slices.Contains(c.Text.Locales, l) {
			errs = append(errs, fmt.Errorf("check: locale %q is not in text.locales", l))
		}
	}

	for name, rule := range c.rules() {
		if rule == "" {
			errs = append(errs, fmt.Errorf("rule %s is empty", name))
			continue
		}
		if _, err := regexp.Compile(rule); err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) rules() map[string]string {
	return map[string]string{
		"character.rules.chara_base":   c.Character.Rules.Base,
		"character.rules.chara_param":  c.Character.Rules.Param,
		"character.rules.growth_table": c.Character.Rules.Growth,
		"text.rules.chara_name":        c.Text.Rules.Names,
		"text.rules.chara_name_roma":   c.Text.Rules.RomaNames,
		"text.rules.chara_description": c.Text.Rules.Descriptions,
		"text.rules.series_name":       c.Text.Rules.Series,
	}
}

// CharacterDBPath returns the character database path.
func (c *Config) CharacterDBPath() string {
	return filepath.Join(c.Datamining.OutputFolder, CharacterDBFile)
}

// TextDBPath returns the text database path for locale.
func (c *Config) TextDBPath(locale string) string {
	return filepath.Join(c.Datamining.OutputFolder, TextDBDir, locale+".sqlite")
}

// CharacterDir returns the directory holding the character table dumps.
func (c *Config) CharacterDir() string {
	return filepath.Join(c.Datamining.ExtractionFolder, c.Character.Root)
}

// TextDir returns the directory holding locale's table dumps.
func (c *Config) TextDir(locale string) string {
	return filepath.Join(c.Datamining.ExtractionFolder, c.Text.Root, locale)
}

// Write marshals cfg to path. It refuses to overwrite an existing file.
func Write(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
