// Package metrics defines the sink interface engine components report
// progress and results through. Implementations live under infra.
package metrics

import "errors"

// StockPoint is one stock-level observation produced by the fleet fold.
type StockPoint struct {
	RunID       string
	Region      string
	VehicleType string
	Technology  string
	Year        int
	Share       float64
	Price       float64
	Intensity   float64
}

// Sink receives engine events. Implementations must be safe for
// concurrent use; regions are processed in parallel.
type Sink interface {
	// RecordExclusion counts a node dropped from a choice set.
	RecordExclusion(region, node string, year int) error
	// RecordStock publishes a batch of stock observations.
	RecordStock(points []StockPoint) error
	// RecordRegionDone marks a region's projection as finished.
	RecordRegionDone(region string, years int) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordExclusion(string, string, int) error { return nil }
func (NopSink) RecordStock([]StockPoint) error            { return nil }
func (NopSink) RecordRegionDone(string, int) error        { return nil }

// MultiSink fans every event out to all sinks, joining errors.
type MultiSink []Sink

func (m MultiSink) RecordExclusion(region, node string, year int) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.RecordExclusion(region, node, year))
	}
	return errors.Join(errs...)
}

func (m MultiSink) RecordStock(points []StockPoint) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.RecordStock(points))
	}
	return errors.Join(errs...)
}

func (m MultiSink) RecordRegionDone(region string, years int) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.RecordRegionDone(region, years))
	}
	return errors.Join(errs...)
}

// Config selects and parameterizes the sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}
