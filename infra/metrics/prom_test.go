package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
)

func TestPromSinkCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordExclusion("EUR", "car_bev", 2030); err != nil {
		t.Fatalf("record exclusion: %v", err)
	}
	if err := sink.RecordExclusion("EUR", "car_fcev", 2030); err != nil {
		t.Fatalf("record exclusion: %v", err)
	}
	if err := sink.RecordRegionDone("EUR", 16); err != nil {
		t.Fatalf("record region: %v", err)
	}
	if err := sink.RecordStock(make([]coremetrics.StockPoint, 3)); err != nil {
		t.Fatalf("record stock: %v", err)
	}

	ps := sink.(*PromSink)
	if got := testutil.ToFloat64(ps.exclusions.WithLabelValues("EUR", "2030")); got != 2 {
		t.Fatalf("exclusions = %g", got)
	}
	if got := testutil.ToFloat64(ps.regions); got != 1 {
		t.Fatalf("regions = %g", got)
	}
	if got := testutil.ToFloat64(ps.stock); got != 3 {
		t.Fatalf("stock points = %g", got)
	}
}

func TestPromSinkDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}
