// Package calibrate inverts the nested logit share equations at
// historical reference years, recovering the preference weights that
// reproduce observed shares given observed prices.
package calibrate

import (
	"fmt"
	"math"

	"github.com/MariannaR/edgeTransport/core/logger"
	"github.com/MariannaR/edgeTransport/core/logit"
	"github.com/MariannaR/edgeTransport/core/model"
	"github.com/MariannaR/edgeTransport/core/nest"
)

// Mode selects the calibration variant.
type Mode int

const (
	// ModePreference solves for preference weights against pure
	// price/intensity costs.
	ModePreference Mode = iota
	// ModeInconvenience folds the exogenous non-price cost adjustment
	// into leaf costs first, so the solved preference captures only the
	// residual, price-unexplained taste.
	ModeInconvenience
)

// DefaultFloor replaces the preference of a node whose observed share is
// zero, keeping the node available for future projection.
const DefaultFloor = 1e-6

// Calibrator inverts the share equations for one nest tree. Both modes
// share the bottom-up inversion; they differ only in leaf-cost
// pre-processing.
type Calibrator struct {
	Tree  *nest.Tree
	Mode  Mode
	Floor float64
	Log   logger.Logger
}

// New returns a Calibrator with the default preference floor.
func New(tree *nest.Tree, mode Mode, log logger.Logger) *Calibrator {
	if log == nil {
		log = logger.Nop{}
	}
	return &Calibrator{Tree: tree, Mode: mode, Floor: DefaultFloor, Log: log}
}

// Calibrate solves the preference weights that reproduce the observed
// shares at in.Year. The returned map has one strictly positive entry per
// available node; the root and singleton nests get weight 1 by
// convention.
func (c *Calibrator) Calibrate(obs *model.ShareTable, in logit.Inputs) (map[string]float64, error) {
	switch c.Mode {
	case ModePreference:
		in.Inconvenience = nil
	case ModeInconvenience:
		if in.Inconvenience == nil {
			return nil, fmt.Errorf("inconvenience mode without an inconvenience table")
		}
	}

	costs := make(map[string]float64)
	obsAbs := make(map[string]float64)
	avail := make(map[string]bool)
	prefs := make(map[string]float64)

	for _, level := range c.Tree.BottomUp() {
		for _, key := range level {
			n, _ := c.Tree.Node(key)
			if n.IsLeaf() {
				share, _ := obs.Lookup(in.Region, n.Leaf(), in.Year)
				cost, ok := logit.LeafCost(c.Tree, n, in)
				if !ok {
					if share > 0 {
						return nil, &CalibrationDataGapError{
							Key: model.Key{Region: in.Region, Node: key, Year: in.Year},
						}
					}
					c.Log.Infow("leaf excluded from calibration", map[string]any{
						"region": in.Region, "node": key, "year": in.Year,
					})
					continue
				}
				costs[key] = cost
				obsAbs[key] = share
				avail[key] = true
				continue
			}
			if err := c.solveNest(n, in, costs, obsAbs, avail, prefs); err != nil {
				return nil, err
			}
		}
	}
	if !avail[c.Tree.Root().Key] {
		return nil, &logit.DegenerateNestError{
			Key: model.Key{Region: in.Region, Node: c.Tree.Root().Key, Year: in.Year},
		}
	}
	prefs[c.Tree.Root().Key] = 1
	return prefs, nil
}

// solveNest inverts one nest: given observed conditional shares s_i and
// child costs c_i, preference_i = (s_i/s_r)·(c_i/c_r)^(1/λ) with the
// reference sibling r fixed to weight 1. The largest observed share is
// the reference, which keeps the ratios numerically tame.
func (c *Calibrator) solveNest(n nest.Node, in logit.Inputs, costs, obsAbs map[string]float64, avail map[string]bool, prefs map[string]float64) error {
	var live []nest.Node
	total := 0.0
	for _, child := range c.Tree.Children(n.Key) {
		if avail[child.Key] {
			live = append(live, child)
			total += obsAbs[child.Key]
		}
	}
	if len(live) == 0 {
		c.Log.Infow("nest excluded from calibration", map[string]any{
			"region": in.Region, "node": n.Key, "year": in.Year,
		})
		return nil
	}
	obsAbs[n.Key] = total
	avail[n.Key] = true

	switch {
	case len(live) == 1:
		// Singleton nest: the share equation is degenerate, the weight
		// is fixed to 1 by convention.
		prefs[live[0].Key] = 1
	case total == 0:
		// Nothing under this nest was ever observed; leave the
		// children neutral so projection can still activate them.
		for _, child := range live {
			prefs[child.Key] = 1
		}
	default:
		ref := live[0]
		for _, child := range live[1:] {
			if obsAbs[child.Key] > obsAbs[ref.Key] {
				ref = child
			}
		}
		sRef := obsAbs[ref.Key] / total
		cRef := costs[ref.Key]
		for _, child := range live {
			if child.Key == ref.Key {
				prefs[child.Key] = 1
				continue
			}
			s := obsAbs[child.Key] / total
			if s == 0 {
				prefs[child.Key] = c.Floor
				continue
			}
			prefs[child.Key] = (s / sRef) * math.Pow(costs[child.Key]/cRef, 1/n.Exponent)
		}
	}

	cps := make([]float64, len(live))
	ccs := make([]float64, len(live))
	for i, child := range live {
		cps[i] = prefs[child.Key]
		ccs[i] = costs[child.Key]
	}
	costs[n.Key] = logit.CompositeCost(n.Exponent, cps, ccs)
	return nil
}
