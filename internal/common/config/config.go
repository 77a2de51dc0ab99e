// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig                `mapstructure:"app"`
	Server   ServerConfig             `mapstructure:"server"`
	Folders  FoldersConfig            `mapstructure:"folders"`
	Output   OutputConfig             `mapstructure:"output"`
	Parser   ParserConfig             `mapstructure:"parser"`
	Mappings map[string]MappingConfig `mapstructure:"mappings"`
	Logging  LoggingConfig            `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the local console listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address for the console HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FoldersConfig holds the two shared folders the core operates on. The
// template folder is consumed read-only; the output folder is contended.
type FoldersConfig struct {
	Templates string `mapstructure:"templates"`
	Output    string `mapstructure:"output"`
}

// OutputConfig holds the output naming policy.
type OutputConfig struct {
	MaxNameAttempts int `mapstructure:"max_name_attempts"`
}

// ParserConfig holds the header labels used to locate columns in request and
// historical quotation sheets. Labels are matched after normalization, so
// whitespace and Unicode form differences in the workbook do not matter.
type ParserConfig struct {
	NameLabels      []string `mapstructure:"name_labels"`
	SpecLabels      []string `mapstructure:"spec_labels"`
	MakerLabels     []string `mapstructure:"maker_labels"`
	UnitLabels      []string `mapstructure:"unit_labels"`
	QuantityLabels  []string `mapstructure:"quantity_labels"`
	UnitPriceLabels []string `mapstructure:"unit_price_labels"`
	AmountLabels    []string `mapstructure:"amount_labels"`
}

// MappingConfig declares the field-to-cell mapping for one template kind.
// Cells must be unique within a mapping; Sheet may be empty to target the
// first sheet of the workbook.
type MappingConfig struct {
	Sheet  string      `mapstructure:"sheet"`
	Schema string      `mapstructure:"schema"`
	Fields []FieldCell `mapstructure:"fields"`
}

// FieldCell binds a named record field to an A1-style cell reference.
type FieldCell struct {
	Field string `mapstructure:"field"`
	Cell  string `mapstructure:"cell"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
