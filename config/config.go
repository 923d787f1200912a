package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
)

// Config is the full run configuration.
type Config struct {
	Inputs   InputsConfig       `json:"inputs"`
	Run      RunConfig          `json:"run"`
	Scenario Scenario           `json:"scenario"`
	Metrics  coremetrics.Config `json:"metrics"`
	Output   OutputConfig       `json:"output"`
}

// InputsConfig locates the input tables.
type InputsConfig struct {
	Prices        string `json:"prices"`
	Shares        string `json:"shares"`
	Topology      string `json:"topology"`
	TimeValues    string `json:"time_values"`
	Inconvenience string `json:"inconvenience"`
	Indicator     string `json:"indicator"`
	Survival      string `json:"survival"`
	Demand        string `json:"demand"`
}

// Validate checks that the mandatory tables are configured.
func (c InputsConfig) Validate(inconvenienceMode bool) error {
	required := map[string]string{
		"inputs.prices":    c.Prices,
		"inputs.shares":    c.Shares,
		"inputs.topology":  c.Topology,
		"inputs.indicator": c.Indicator,
		"inputs.survival":  c.Survival,
		"inputs.demand":    c.Demand,
	}
	for name, path := range required {
		if path == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if inconvenienceMode && c.Inconvenience == "" {
		return fmt.Errorf("inputs.inconvenience is required in inconvenience-cost mode")
	}
	return nil
}

// RunConfig defines the simulation horizon.
type RunConfig struct {
	// ReferenceYears are the historical years calibrated against, in
	// increasing order. The last one seeds the trend projection.
	ReferenceYears []int `json:"reference_years"`
	StartYear      int   `json:"start_year"`
	EndYear        int   `json:"end_year"`
	YearStep       int   `json:"year_step"`
	// Regions restricts the run to the listed regions; empty means all
	// regions present in the indicator table.
	Regions []string `json:"regions"`
	// PassengerSectors name the nest sectors whose leaves carry the
	// value-of-time surcharge.
	PassengerSectors []string `json:"passenger_sectors"`
	// Workers caps the number of regions processed concurrently.
	Workers int `json:"workers"`
}

// SetDefaults applies sane defaults.
func (c *RunConfig) SetDefaults() {
	if c.YearStep == 0 {
		c.YearStep = 1
	}
	if len(c.PassengerSectors) == 0 {
		c.PassengerSectors = []string{"passenger"}
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

// Validate checks the horizon.
func (c RunConfig) Validate() error {
	if len(c.ReferenceYears) == 0 {
		return fmt.Errorf("run.reference_years is required")
	}
	for i := 1; i < len(c.ReferenceYears); i++ {
		if c.ReferenceYears[i] <= c.ReferenceYears[i-1] {
			return fmt.Errorf("run.reference_years must be strictly increasing")
		}
	}
	if c.StartYear <= c.ReferenceYears[len(c.ReferenceYears)-1] {
		return fmt.Errorf("run.start_year must follow the last reference year")
	}
	if c.EndYear < c.StartYear {
		return fmt.Errorf("run.end_year before run.start_year")
	}
	if c.YearStep < 1 {
		return fmt.Errorf("run.year_step must be positive")
	}
	return nil
}

// Years returns the simulation year grid in increasing order.
func (c RunConfig) Years() []int {
	var out []int
	for y := c.StartYear; y <= c.EndYear; y += c.YearStep {
		out = append(out, y)
	}
	return out
}

// OutputConfig controls result export.
type OutputConfig struct {
	// Dir receives the exported result files; empty disables export.
	Dir string `json:"dir"`
	// Format is "csv" or "json".
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "csv"
	}
}

// Validate checks the export format.
func (c OutputConfig) Validate() error {
	if c.Format != "csv" && c.Format != "json" {
		return fmt.Errorf("unknown output format %s", c.Format)
	}
	return nil
}

// Load reads the configuration file (YAML or JSON by extension), applies
// ET_-prefixed environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("ET_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "et_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Run.SetDefaults()
	cfg.Scenario.SetDefaults()
	cfg.Output.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Run.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scenario.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Inputs.Validate(cfg.Scenario.InconvenienceCosts); err != nil {
		return nil, err
	}
	if err := cfg.Output.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
