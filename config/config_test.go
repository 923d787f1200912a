package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MariannaR/edgeTransport/core/trend"
)

const validYAML = `
inputs:
  prices: data/prices.csv
  shares: data/shares.csv
  topology: data/topology.csv
  indicator: data/indicator.csv
  survival: data/survival.csv
  demand: data/demand.csv
run:
  reference_years: [2010, 2015]
  start_year: 2020
  end_year: 2050
  year_step: 5
scenario:
  trend_law: logistic
  convergence_year: 2070
  targets:
    dense:
      car_bev:
        asymptote: 1.8
output:
  dir: out
`

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cfg.yaml", validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.YearStep != 5 || cfg.Run.Workers != 4 {
		t.Fatalf("run config %+v", cfg.Run)
	}
	years := cfg.Run.Years()
	if years[0] != 2020 || years[len(years)-1] != 2050 || len(years) != 7 {
		t.Fatalf("years = %v", years)
	}
	if cfg.Scenario.TrendLaw != "logistic" {
		t.Fatalf("trend law = %s", cfg.Scenario.TrendLaw)
	}
	if cfg.Output.Format != "csv" {
		t.Fatalf("output format = %s", cfg.Output.Format)
	}

	tc := cfg.Scenario.TrendConfig(2015)
	if tc.Law != trend.LawLogistic || tc.ReferenceYear != 2015 {
		t.Fatalf("trend config %+v", tc)
	}
	tgt := tc.Targets[trend.ClusterDense]["car_bev"]
	if tgt.Asymptote != 1.8 || tgt.ConvergenceYear != 2070 {
		t.Fatalf("target %+v", tgt)
	}
}

func TestLoadRejectsBadHorizon(t *testing.T) {
	bad := `
inputs:
  prices: p
  shares: s
  topology: t
  indicator: i
  survival: v
  demand: d
run:
  reference_years: [2015]
  start_year: 2010
  end_year: 2050
`
	if _, err := Load(writeConfig(t, "cfg.yaml", bad)); err == nil {
		t.Fatal("expected error: start year before reference year")
	}
}

func TestLoadRejectsInconvenienceWithoutTable(t *testing.T) {
	bad := `
inputs:
  prices: p
  shares: s
  topology: t
  indicator: i
  survival: v
  demand: d
run:
  reference_years: [2015]
  start_year: 2020
  end_year: 2030
scenario:
  inconvenience_costs: true
`
	if _, err := Load(writeConfig(t, "cfg.yaml", bad)); err == nil {
		t.Fatal("expected error: inconvenience mode without table")
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := Load(writeConfig(t, "cfg.toml", "x = 1")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestScenarioValidate(t *testing.T) {
	s := Scenario{TrendLaw: "spline"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for unknown law")
	}
	s = Scenario{TrendLaw: "exponential", Targets: map[string]map[string]TargetConfig{"urban": nil}}
	if err := s.Validate(); err == nil {
		t.Fatal("expected error for unknown cluster")
	}
}
