package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
	"github.com/MariannaR/edgeTransport/infra/logger"
)

// InfluxSink publishes stock observations to an InfluxDB instance so
// projected series can be inspected without re-running the engine.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a dead endpoint never blocks a
// run.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordStock writes one point per stock observation. The year is encoded
// as a point timestamp at mid-year so dashboards sort naturally.
func (s *InfluxSink) RecordStock(points []coremetrics.StockPoint) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, sp := range points {
		p := write.NewPointWithMeasurement("stock").
			AddTag("run_id", sp.RunID).
			AddTag("region", sp.Region).
			AddTag("vehicle_type", sp.VehicleType).
			AddTag("technology", sp.Technology).
			AddTag("year", strconv.Itoa(sp.Year)).
			AddField("share", sp.Share).
			AddField("price", sp.Price).
			AddField("intensity", sp.Intensity).
			SetTime(time.Date(sp.Year, time.July, 1, 0, 0, 0, 0, time.UTC))
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordExclusion implements coremetrics.Sink. Exclusions only feed the
// counters, not the time series store.
func (s *InfluxSink) RecordExclusion(string, string, int) error { return nil }

// RecordRegionDone implements coremetrics.Sink.
func (s *InfluxSink) RecordRegionDone(region string, years int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("region_done").
		AddTag("region", region).
		AddField("years", years).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
