// Package trend groups regions into archetypal clusters and extrapolates
// calibrated preferences toward cluster-specific long-run trajectories.
package trend

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// IndicatorSource supplies the structural indicator (a land-area
// normalised metric) used for cluster assignment. Injected so tests can
// supply synthetic indicators.
type IndicatorSource interface {
	Indicator(region string) (float64, bool)
}

// IndicatorMap is a map-backed IndicatorSource.
type IndicatorMap map[string]float64

// Indicator implements IndicatorSource.
func (m IndicatorMap) Indicator(region string) (float64, bool) {
	v, ok := m[region]
	return v, ok
}

// Cluster is one preference-trend archetype.
type Cluster int

const (
	ClusterSparse Cluster = iota
	ClusterIntermediate
	ClusterDense
)

func (c Cluster) String() string {
	switch c {
	case ClusterSparse:
		return "sparse"
	case ClusterIntermediate:
		return "intermediate"
	case ClusterDense:
		return "dense"
	}
	return fmt.Sprintf("cluster(%d)", int(c))
}

// ClusteringIndicatorMissingError reports a region absent from the
// indicator dataset.
type ClusteringIndicatorMissingError struct {
	Region string
}

func (e *ClusteringIndicatorMissingError) Error() string {
	return fmt.Sprintf("no structural indicator for region %s", e.Region)
}

// Assign partitions regions into the three clusters by the terciles of
// the indicator distribution. The assignment depends only on the
// indicator values and is computed once per run, independent of scenario.
func Assign(regions []string, src IndicatorSource) (map[string]Cluster, error) {
	sorted := append([]string(nil), regions...)
	sort.Strings(sorted)

	values := make([]float64, len(sorted))
	for i, r := range sorted {
		v, ok := src.Indicator(r)
		if !ok {
			return nil, &ClusteringIndicatorMissingError{Region: r}
		}
		values[i] = v
	}

	dist := append([]float64(nil), values...)
	sort.Float64s(dist)
	lo := stat.Quantile(1.0/3.0, stat.Empirical, dist, nil)
	hi := stat.Quantile(2.0/3.0, stat.Empirical, dist, nil)

	out := make(map[string]Cluster, len(sorted))
	for i, r := range sorted {
		switch {
		case values[i] <= lo:
			out[r] = ClusterSparse
		case values[i] <= hi:
			out[r] = ClusterIntermediate
		default:
			out[r] = ClusterDense
		}
	}
	return out, nil
}
