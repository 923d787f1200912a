package trend

import (
	"math"
	"sort"

	"github.com/MariannaR/edgeTransport/core/model"
)

// Law selects the functional form of the convergence path. Both forms
// are monotone between the calibrated value and the asymptote.
type Law int

const (
	LawExponential Law = iota
	LawLogistic
)

// Target parameterizes the long-run trajectory of one node's preference.
// An Asymptote <= 0 means the calibrated value is held constant.
type Target struct {
	Asymptote       float64
	ConvergenceYear int
	// Rate overrides the rate derived from ConvergenceYear when > 0.
	Rate float64
}

// prefFloor keeps projected preferences strictly positive so a node can
// reactivate when prices or targets move in its favour.
const prefFloor = 1e-6

// Config holds the scenario-level projection parameters. It is immutable
// for a run and passed by value.
type Config struct {
	Law           Law
	ReferenceYear int
	// Targets maps cluster -> node key -> trajectory target. Nodes
	// without an entry fall back to Default.
	Targets map[Cluster]map[string]Target
	Default Target
	// LifestyleShift raises the asymptote of the listed demand-adjacent
	// nodes (active-mode nests) by LifestyleBoost.
	LifestyleShift bool
	LifestyleBoost float64
	LifestyleNodes map[string]bool
}

// Projector extrapolates calibrated preferences from the reference year
// toward cluster-specific asymptotes. Outputs depend only on the inputs
// and the immutable config.
type Projector struct {
	Config Config
}

// Project returns preference sets for each requested year. Years at or
// before the reference year return the calibrated values unchanged.
func (p *Projector) Project(calibrated map[string]float64, cluster Cluster, years []int) map[int]map[string]float64 {
	keys := make([]string, 0, len(calibrated))
	for k := range calibrated {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[int]map[string]float64, len(years))
	for _, year := range years {
		prefs := make(map[string]float64, len(keys))
		for _, key := range keys {
			prefs[key] = p.at(calibrated[key], cluster, key, year)
		}
		out[year] = prefs
	}
	return out
}

func (p *Projector) at(calibrated float64, cluster Cluster, node string, year int) float64 {
	tgt := p.target(cluster, node)
	asym := tgt.Asymptote
	if asym <= 0 {
		return math.Max(calibrated, prefFloor)
	}
	if p.Config.LifestyleShift && p.Config.LifestyleNodes[node] {
		asym *= p.Config.LifestyleBoost
	}
	w := p.weight(tgt, year)
	v := calibrated + (asym-calibrated)*w
	return math.Max(v, prefFloor)
}

func (p *Projector) target(cluster Cluster, node string) Target {
	if byNode, ok := p.Config.Targets[cluster]; ok {
		if t, ok := byNode[node]; ok {
			return t
		}
	}
	return p.Config.Default
}

// weight returns the converged fraction in [0,1) at the given year.
func (p *Projector) weight(tgt Target, year int) float64 {
	t0 := p.Config.ReferenceYear
	if year <= t0 {
		return 0
	}
	span := float64(tgt.ConvergenceYear - t0)
	dt := float64(year - t0)
	switch p.Config.Law {
	case LawLogistic:
		// Logistic ramp centred between reference and convergence year,
		// shifted so the reference year starts exactly at the
		// calibrated value.
		k := tgt.Rate
		if k <= 0 {
			if span <= 0 {
				return 1
			}
			k = 10 / span
		}
		mid := span / 2
		s := func(x float64) float64 { return 1 / (1 + math.Exp(-k*(x-mid))) }
		s0 := s(0)
		return (s(dt) - s0) / (1 - s0)
	default:
		// Exponential approach: 95% converged by the convergence year.
		r := tgt.Rate
		if r <= 0 {
			if span <= 0 {
				return 1
			}
			r = math.Log(20) / span
		}
		return 1 - math.Exp(-r*dt)
	}
}

// InconveniencePath decays a calibration-year cost adjustment over time,
// representing non-price adoption barriers eroding as a technology
// matures. Residual is the fraction of the initial adjustment that never
// erodes.
type InconveniencePath struct {
	StartYear int
	Rate      float64
	Residual  float64
}

// At returns the adjustment in effect at the given year.
func (p InconveniencePath) At(initial float64, year int) float64 {
	if year <= p.StartYear || p.Rate <= 0 {
		return initial
	}
	decay := math.Exp(-p.Rate * float64(year-p.StartYear))
	return initial * (p.Residual + (1-p.Residual)*decay)
}

// Extend materialises per-year inconvenience records for the given years
// from base records observed at the path's start year.
func (p InconveniencePath) Extend(base []model.InconvenienceRecord, years []int) []model.InconvenienceRecord {
	out := make([]model.InconvenienceRecord, 0, len(base)*len(years))
	for _, r := range base {
		for _, year := range years {
			out = append(out, model.InconvenienceRecord{
				Region:      r.Region,
				VehicleType: r.VehicleType,
				Year:        year,
				Adjustment:  p.At(r.Adjustment, year),
			})
		}
	}
	return out
}
