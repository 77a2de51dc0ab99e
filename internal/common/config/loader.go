// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like QUOTEGEN_FOLDERS_OUTPUT
	viper.SetEnvPrefix("quotegen")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "quotegen"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8765
	}

	if cfg.Folders.Templates == "" {
		cfg.Folders.Templates = "templates"
	}
	if cfg.Folders.Output == "" {
		cfg.Folders.Output = "output"
	}

	if cfg.Output.MaxNameAttempts == 0 {
		cfg.Output.MaxNameAttempts = 100
	}

	// Column labels default to the headers used by the operator's quotation
	// and quotation-request sheets. 수량 doubles as a purchase-quantity label
	// on request sheets.
	if len(cfg.Parser.NameLabels) == 0 {
		cfg.Parser.NameLabels = []string{"품명"}
	}
	if len(cfg.Parser.SpecLabels) == 0 {
		cfg.Parser.SpecLabels = []string{"규격"}
	}
	if len(cfg.Parser.MakerLabels) == 0 {
		cfg.Parser.MakerLabels = []string{"제조사"}
	}
	if len(cfg.Parser.UnitLabels) == 0 {
		cfg.Parser.UnitLabels = []string{"단위"}
	}
	if len(cfg.Parser.QuantityLabels) == 0 {
		cfg.Parser.QuantityLabels = []string{"구매량", "수량"}
	}
	if len(cfg.Parser.UnitPriceLabels) == 0 {
		cfg.Parser.UnitPriceLabels = []string{"단가"}
	}
	if len(cfg.Parser.AmountLabels) == 0 {
		cfg.Parser.AmountLabels = []string{"금액"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Folders.Templates == "" {
		return fmt.Errorf("folders.templates is required")
	}
	if cfg.Folders.Output == "" {
		return fmt.Errorf("folders.output is required")
	}
	if cfg.Output.MaxNameAttempts < 1 {
		return fmt.Errorf("output.max_name_attempts must be positive")
	}

	for kind, mapping := range cfg.Mappings {
		if kind == "" {
			return fmt.Errorf("mappings: empty template kind")
		}
		if len(mapping.Fields) == 0 {
			return fmt.Errorf("mappings.%s: at least one field is required", kind)
		}
		for i, fc := range mapping.Fields {
			if fc.Field == "" {
				return fmt.Errorf("mappings.%s.fields[%d]: field name is required", kind, i)
			}
			if fc.Cell == "" {
				return fmt.Errorf("mappings.%s.fields[%d]: cell reference is required", kind, i)
			}
		}
	}

	return nil
}
