package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
)

// PromSink records engine progress in Prometheus metrics.
type PromSink struct {
	exclusions *prometheus.CounterVec
	regions    prometheus.Counter
	stock      prometheus.Counter
}

// NewPromSink registers the engine metrics on the default Prometheus
// registerer. The exposition server is started separately.
func NewPromSink() (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	exclusions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "edgetransport_node_exclusions_total",
		Help: "Nodes dropped from a choice set for missing price data",
	}, []string{"region", "year"})
	regions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "edgetransport_regions_completed_total",
		Help: "Regions whose projection finished",
	})
	stock := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "edgetransport_stock_points_total",
		Help: "Stock observations produced by the fleet fold",
	})

	if err := reg.Register(exclusions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			exclusions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(regions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			regions = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(stock); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			stock = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	return &PromSink{exclusions: exclusions, regions: regions, stock: stock}, nil
}

// RecordExclusion implements coremetrics.Sink.
func (s *PromSink) RecordExclusion(region, node string, year int) error {
	s.exclusions.WithLabelValues(region, strconv.Itoa(year)).Inc()
	return nil
}

// RecordStock implements coremetrics.Sink.
func (s *PromSink) RecordStock(points []coremetrics.StockPoint) error {
	s.stock.Add(float64(len(points)))
	return nil
}

// RecordRegionDone implements coremetrics.Sink.
func (s *PromSink) RecordRegionDone(string, int) error {
	s.regions.Inc()
	return nil
}
