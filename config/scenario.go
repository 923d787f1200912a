package config

import (
	"fmt"

	"github.com/MariannaR/edgeTransport/core/trend"
)

// TargetConfig parameterizes one node's long-run preference trajectory.
type TargetConfig struct {
	Asymptote       float64 `json:"asymptote"`
	ConvergenceYear int     `json:"convergence_year"`
	Rate            float64 `json:"rate"`
}

// Scenario holds the behavioural switches of a run. It is immutable once
// loaded and passed by value into the engine components.
type Scenario struct {
	// InconvenienceCosts enables the hybrid calibration mode and the
	// decaying non-price cost path.
	InconvenienceCosts bool `json:"inconvenience_costs"`
	// InconvenienceDecayRate is the per-year erosion rate of the
	// adjustment; InconvenienceResidual is the fraction that never
	// erodes.
	InconvenienceDecayRate float64 `json:"inconvenience_decay_rate"`
	InconvenienceResidual  float64 `json:"inconvenience_residual"`

	// TrendLaw is "exponential" or "logistic".
	TrendLaw string `json:"trend_law"`
	// ConvergenceYear and Rate default every node target that does not
	// override them.
	ConvergenceYear int     `json:"convergence_year"`
	Rate            float64 `json:"rate"`
	// Targets maps cluster name (sparse, intermediate, dense) to node
	// key to trajectory target.
	Targets map[string]map[string]TargetConfig `json:"targets"`

	// LifestyleShift raises the asymptote of the LifestyleNodes
	// (active-mode nests) by LifestyleBoost.
	LifestyleShift bool     `json:"lifestyle_shift"`
	LifestyleBoost float64  `json:"lifestyle_boost"`
	LifestyleNodes []string `json:"lifestyle_nodes"`
}

// SetDefaults applies sane defaults.
func (s *Scenario) SetDefaults() {
	if s.TrendLaw == "" {
		s.TrendLaw = "exponential"
	}
	if s.LifestyleBoost == 0 {
		s.LifestyleBoost = 1.5
	}
	if s.InconvenienceDecayRate == 0 {
		s.InconvenienceDecayRate = 0.05
	}
}

// Validate checks the switches.
func (s Scenario) Validate() error {
	if s.TrendLaw != "exponential" && s.TrendLaw != "logistic" {
		return fmt.Errorf("unknown trend law %s", s.TrendLaw)
	}
	if s.InconvenienceResidual < 0 || s.InconvenienceResidual > 1 {
		return fmt.Errorf("inconvenience residual %g outside [0,1]", s.InconvenienceResidual)
	}
	for cluster := range s.Targets {
		if _, err := parseCluster(cluster); err != nil {
			return err
		}
	}
	return nil
}

func parseCluster(name string) (trend.Cluster, error) {
	switch name {
	case "sparse":
		return trend.ClusterSparse, nil
	case "intermediate":
		return trend.ClusterIntermediate, nil
	case "dense":
		return trend.ClusterDense, nil
	}
	return 0, fmt.Errorf("unknown cluster %s", name)
}

// TrendConfig assembles the projector configuration for the given
// reference year.
func (s Scenario) TrendConfig(referenceYear int) trend.Config {
	law := trend.LawExponential
	if s.TrendLaw == "logistic" {
		law = trend.LawLogistic
	}
	cfg := trend.Config{
		Law:           law,
		ReferenceYear: referenceYear,
		Default: trend.Target{
			ConvergenceYear: s.ConvergenceYear,
			Rate:            s.Rate,
		},
		LifestyleShift: s.LifestyleShift,
		LifestyleBoost: s.LifestyleBoost,
	}
	if len(s.Targets) > 0 {
		cfg.Targets = make(map[trend.Cluster]map[string]trend.Target, len(s.Targets))
		for name, byNode := range s.Targets {
			cluster, err := parseCluster(name)
			if err != nil {
				continue // rejected by Validate
			}
			m := make(map[string]trend.Target, len(byNode))
			for node, t := range byNode {
				tgt := trend.Target{
					Asymptote:       t.Asymptote,
					ConvergenceYear: t.ConvergenceYear,
					Rate:            t.Rate,
				}
				if tgt.ConvergenceYear == 0 {
					tgt.ConvergenceYear = s.ConvergenceYear
				}
				if tgt.Rate == 0 {
					tgt.Rate = s.Rate
				}
				m[node] = tgt
			}
			cfg.Targets[cluster] = m
		}
	}
	if len(s.LifestyleNodes) > 0 {
		cfg.LifestyleNodes = make(map[string]bool, len(s.LifestyleNodes))
		for _, n := range s.LifestyleNodes {
			cfg.LifestyleNodes[n] = true
		}
	}
	return cfg
}

// InconveniencePath assembles the decay path for the adjustment table.
func (s Scenario) InconveniencePath(referenceYear int) trend.InconveniencePath {
	return trend.InconveniencePath{
		StartYear: referenceYear,
		Rate:      s.InconvenienceDecayRate,
		Residual:  s.InconvenienceResidual,
	}
}
