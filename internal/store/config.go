package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Data source kinds accepted in data.source.
const (
	SourceCSV        = "CSV"
	SourceJSON       = "JSON"
	SourceSQLite     = "SQLITE"
	SourceClickHouse = "CLICKHOUSE"
)

const dateLayout = "2006-01-02"

type Config struct {
	Symbol     string  `yaml:"symbol"`
	Investment float64 `yaml:"investment"`
	StartDate  string  `yaml:"start_date"`
	EndDate    string  `yaml:"end_date"`
	Data       struct {
		Source       string `yaml:"source"`
		Path         string `yaml:"path"`
		DSN          string `yaml:"dsn"`
		Table        string `yaml:"table"`
		// SymbolColumn, when set, filters SQL rows on symbol. Leave it
		// empty for single-instrument tables.
		SymbolColumn string `yaml:"symbol_column"`
	} `yaml:"data"`
	Output struct {
		Dir         string `yaml:"dir"`
		LedgerJSONL bool   `yaml:"ledger_jsonl"`
		LedgerCSV   bool   `yaml:"ledger_csv"`
		SummaryCSV  bool   `yaml:"summary_csv"`
		ChartPNG    bool   `yaml:"chart_png"`
	} `yaml:"output"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "TQQQ"
	}
	if c.Investment == 0 {
		c.Investment = 100000
	}
	if c.StartDate == "" {
		c.StartDate = "2025-01-01"
	}
	if c.EndDate == "" {
		c.EndDate = "2025-04-30"
	}
	if c.Data.Source == "" {
		c.Data.Source = SourceCSV
	}
	c.Data.Source = strings.ToUpper(c.Data.Source)
	if c.Data.Table == "" {
		c.Data.Table = "daily_bars"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "out"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// applyEnv lets deployments point at data without editing the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("BACKTEST_DATA_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("BACKTEST_DSN"); v != "" {
		c.Data.DSN = v
	}
}

func (c *Config) Validate() error {
	if c.Investment <= 0 {
		return fmt.Errorf("investment must be positive, got %.2f", c.Investment)
	}
	start, err := c.Start()
	if err != nil {
		return err
	}
	end, err := c.End()
	if err != nil {
		return err
	}
	if start.After(end) {
		return fmt.Errorf("start_date %s is after end_date %s", c.StartDate, c.EndDate)
	}

	switch c.Data.Source {
	case SourceCSV, SourceJSON:
		if c.Data.Path == "" {
			return fmt.Errorf("data.path is required for source '%s'", c.Data.Source)
		}
	case SourceSQLite, SourceClickHouse:
		if c.Data.DSN == "" {
			return fmt.Errorf("data.dsn is required for source '%s'", c.Data.Source)
		}
		if c.Data.Table == "" {
			return errors.New("data.table cannot be empty")
		}
	default:
		return fmt.Errorf("invalid data.source '%s': must be 'CSV', 'JSON', 'SQLITE' or 'CLICKHOUSE'", c.Data.Source)
	}
	return nil
}

// Start parses start_date.
func (c *Config) Start() (time.Time, error) {
	t, err := time.Parse(dateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_date '%s': %w", c.StartDate, err)
	}
	return t, nil
}

// End parses end_date.
func (c *Config) End() (time.Time, error) {
	t, err := time.Parse(dateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid end_date '%s': %w", c.EndDate, err)
	}
	return t, nil
}

// ReadConfig reads path, falling back to BACKTEST_CONFIG when path is empty,
// and applies defaults and env overrides without validating. With neither
// set, the defaults are used.
func ReadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BACKTEST_CONFIG")
	}

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	c.applyDefaults()
	c.applyEnv()
	return &c, nil
}

// LoadConfig is ReadConfig followed by Validate.
func LoadConfig(path string) (*Config, error) {
	c, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}
