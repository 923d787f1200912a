// Package logit evaluates the nested discrete-choice model for one
// region and year: composite costs bottom-up, shares top-down.
package logit

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MariannaR/edgeTransport/core/model"
	"github.com/MariannaR/edgeTransport/core/nest"
)

// Inputs bundles the per-year data the evaluator reads. The evaluator is
// a pure function of these inputs and the preference set.
type Inputs struct {
	Region string
	Year   int
	Prices *model.PriceTable
	// TimeValues adds the value-of-time surcharge to leaf costs in
	// passenger nests. May be nil.
	TimeValues *model.TimeValueTable
	// Inconvenience adds the non-price cost adjustment to leaf costs.
	// Nil unless the scenario runs in inconvenience-cost mode.
	Inconvenience *model.InconvenienceTable
}

// Result holds one evaluation pass for a region and year.
type Result struct {
	// Shares maps node key to the node's share under its parent. The
	// root has share 1; unavailable nodes have no entry.
	Shares map[string]float64
	// LeafShares maps each available leaf to its absolute share of the
	// whole nest, the product of conditional shares along its path.
	LeafShares map[model.Leaf]float64
	// Costs maps node key to effective cost (leaves) or composite cost
	// (internal nodes, the inclusive value of their children).
	Costs map[string]float64
	// Excluded lists leaves dropped for missing or non-positive prices.
	Excluded []MissingPriceError
	// EmptyNests lists internal nodes dropped because every child was
	// unavailable. Only an empty root escalates to an error.
	EmptyNests []DegenerateNestError
}

// LeafCost computes the effective per-distance cost of a leaf, or false
// when the leaf has no usable price and must leave the choice set.
func LeafCost(tree *nest.Tree, n nest.Node, in Inputs) (float64, bool) {
	p, ok := in.Prices.Lookup(in.Region, n.Leaf(), in.Year)
	if !ok || !p.Valid() {
		return 0, false
	}
	cost := p.NonFuelCost + p.FuelCost*p.Intensity
	if tree.Passenger {
		cost += in.TimeValues.Lookup(in.Region, n.VehicleType, in.Year)
	}
	cost += in.Inconvenience.Lookup(in.Region, n.VehicleType, in.Year)
	if cost <= 0 {
		return 0, false
	}
	return cost, true
}

// CompositeCost aggregates child costs into the parent's inclusive value:
// (Σ pref_i · cost_i^(−1/λ))^(−λ). Callers pass only available children.
func CompositeCost(exponent float64, prefs, costs []float64) float64 {
	terms := make([]float64, len(costs))
	for i, c := range costs {
		terms[i] = prefs[i] * math.Pow(c, -1/exponent)
	}
	return math.Pow(floats.Sum(terms), -exponent)
}

// Evaluate runs one bottom-up/top-down pass over the tree. Preferences
// default to 1 for nodes absent from prefs. It returns a
// DegenerateNestError when every child of a nest is unavailable.
func Evaluate(tree *nest.Tree, prefs map[string]float64, in Inputs) (*Result, error) {
	res := &Result{
		Shares:     make(map[string]float64),
		LeafShares: make(map[model.Leaf]float64),
		Costs:      make(map[string]float64),
	}
	avail := make(map[string]bool)

	for _, level := range tree.BottomUp() {
		for _, key := range level {
			n, _ := tree.Node(key)
			if n.IsLeaf() {
				cost, ok := LeafCost(tree, n, in)
				if !ok {
					res.Excluded = append(res.Excluded, MissingPriceError{
						Key: model.Key{Region: in.Region, Node: key, Year: in.Year},
					})
					continue
				}
				res.Costs[key] = cost
				avail[key] = true
				continue
			}
			var cps, ccs []float64
			for _, c := range tree.Children(key) {
				if avail[c.Key] {
					cps = append(cps, preference(prefs, c.Key))
					ccs = append(ccs, res.Costs[c.Key])
				}
			}
			if len(cps) == 0 {
				// Empty nest: drop it from its parent's choice set.
				res.EmptyNests = append(res.EmptyNests, DegenerateNestError{
					Key: model.Key{Region: in.Region, Node: key, Year: in.Year},
				})
				continue
			}
			res.Costs[key] = CompositeCost(n.Exponent, cps, ccs)
			avail[key] = true
		}
	}

	root := tree.Root().Key
	if !avail[root] {
		return nil, &DegenerateNestError{
			Key: model.Key{Region: in.Region, Node: root, Year: in.Year},
		}
	}
	res.Shares[root] = 1
	abs := map[string]float64{root: 1}
	for _, level := range tree.TopDown() {
		for _, key := range level {
			if !avail[key] {
				continue
			}
			n, _ := tree.Node(key)
			if n.IsLeaf() {
				res.LeafShares[n.Leaf()] = abs[key]
				continue
			}
			children := tree.Children(key)
			weights := make([]float64, 0, len(children))
			live := make([]string, 0, len(children))
			for _, c := range children {
				if !avail[c.Key] {
					continue
				}
				weights = append(weights, preference(prefs, c.Key)*math.Pow(res.Costs[c.Key], -1/n.Exponent))
				live = append(live, c.Key)
			}
			denom := floats.Sum(weights)
			for i, ck := range live {
				share := weights[i] / denom
				res.Shares[ck] = share
				abs[ck] = abs[key] * share
			}
		}
	}
	return res, nil
}

func preference(prefs map[string]float64, key string) float64 {
	if p, ok := prefs[key]; ok && p > 0 {
		return p
	}
	return 1
}
