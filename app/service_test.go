package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MariannaR/edgeTransport/config"
	"github.com/MariannaR/edgeTransport/core/calibrate"
	"github.com/MariannaR/edgeTransport/core/logger"
	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
	"github.com/MariannaR/edgeTransport/core/model"
)

type fixture struct {
	dir string
	cfg *config.Config
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newFixture lays out a two-technology freight tree for region EUR with
// constant prices, so calibrated shares reproduce exactly every year.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	cfg := &config.Config{
		Inputs: config.InputsConfig{
			Topology: f.write(t, "topology.csv",
				"sector,level,node_key,parent_key,exponent,vehicle_type,technology\n"+
					"freight,0,ROOT,,0.5,,\n"+
					"freight,1,car_bev,ROOT,0,car,bev\n"+
					"freight,1,car_ice,ROOT,0,car,ice\n"),
			Prices: f.write(t, "prices.csv",
				"region,vehicle_type,technology,year,non_fuel_cost,fuel_cost,energy_intensity\n"+
					"EUR,car,bev,2020,8,1,0.5\n"+
					"EUR,car,ice,2020,6,2,1\n"+
					"EUR,car,bev,2025,8,1,0.5\n"+
					"EUR,car,ice,2025,6,2,1\n"+
					"EUR,car,bev,2030,8,1,0.5\n"+
					"EUR,car,ice,2030,6,2,1\n"),
			Shares: f.write(t, "shares.csv",
				"region,vehicle_type,technology,reference_year,observed_share\n"+
					"EUR,car,bev,2020,0.3\n"+
					"EUR,car,ice,2020,0.7\n"),
			Indicator: f.write(t, "indicator.csv",
				"region,structural_indicator_value\nEUR,100\n"),
			Survival: f.write(t, "survival.csv",
				"technology,age,surviving_fraction\n"+
					"default,0,1\ndefault,1,0.5\ndefault,2,0\n"),
			Demand: f.write(t, "demand.csv",
				"region,year,total_sales\nEUR,2025,100\nEUR,2030,100\n"),
		},
		Run: config.RunConfig{
			ReferenceYears: []int{2020},
			StartYear:      2025,
			EndYear:        2030,
			YearStep:       5,
			Workers:        2,
		},
		Output: config.OutputConfig{Dir: filepath.Join(f.dir, "out"), Format: "csv"},
	}
	cfg.Scenario.SetDefaults()
	f.cfg = cfg
	return f
}

func newTestService(cfg *config.Config) *Service {
	return &Service{cfg: cfg, log: logger.Nop{}, sink: coremetrics.NopSink{}, runID: "test-run"}
}

func TestServiceRunProjectsCalibratedShares(t *testing.T) {
	f := newFixture(t)
	svc := newTestService(f.cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	assert.Empty(t, res.Skipped)

	rr := res.Regions[0]
	assert.Equal(t, "EUR", rr.Region)
	require.Len(t, rr.Sectors, 1)
	sec := rr.Sectors[0]
	assert.Equal(t, "freight", sec.Sector)
	require.Len(t, sec.Stocks, 2)

	bev := model.Leaf{VehicleType: "car", Technology: "bev"}
	ice := model.Leaf{VehicleType: "car", Technology: "ice"}
	for _, stock := range sec.Stocks {
		// No trend targets: preferences hold, so stock shares match the
		// observed reference split exactly every year.
		assert.InDelta(t, 0.3, stock.Shares[bev], 1e-9)
		assert.InDelta(t, 0.7, stock.Shares[ice], 1e-9)
		assert.InDelta(t, 100, stock.Quantity, 1e-9)
	}
	assert.Equal(t, 2025, sec.Stocks[0].Year)
	assert.Equal(t, 2030, sec.Stocks[1].Year)

	points := res.StockPoints()
	require.Len(t, points, 4)
	assert.Equal(t, "test-run", points[0].RunID)

	for _, name := range []string{"stock.csv", "cohorts.csv"} {
		_, err := os.Stat(filepath.Join(f.cfg.Output.Dir, name))
		assert.NoError(t, err, name)
	}
}

func TestServiceRunSkipsRegionWithoutAnyPrices(t *testing.T) {
	f := newFixture(t)
	// ZRM has an indicator but neither prices nor observed shares, so
	// every leaf drops out and the root nest degenerates.
	f.cfg.Inputs.Indicator = f.write(t, "indicator2.csv",
		"region,structural_indicator_value\nEUR,100\nZRM,10\n")
	svc := newTestService(f.cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	assert.Equal(t, "EUR", res.Regions[0].Region)
	assert.Equal(t, []string{"ZRM"}, res.Skipped)
}

func TestServiceRunAbortsOnCalibrationGap(t *testing.T) {
	f := newFixture(t)
	// A positive observed share with no matching price row is a data
	// defect, not a degenerate nest: the whole run must abort.
	f.cfg.Inputs.Indicator = f.write(t, "indicator3.csv",
		"region,structural_indicator_value\nEUR,100\nZRM,10\n")
	f.cfg.Inputs.Shares = f.write(t, "shares3.csv",
		"region,vehicle_type,technology,reference_year,observed_share\n"+
			"EUR,car,bev,2020,0.3\n"+
			"EUR,car,ice,2020,0.7\n"+
			"ZRM,car,bev,2020,1\n")
	svc := newTestService(f.cfg)

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	var gap *calibrate.CalibrationDataGapError
	assert.True(t, errors.As(err, &gap))
}

func TestServiceRunRespectsRegionFilter(t *testing.T) {
	f := newFixture(t)
	f.cfg.Inputs.Indicator = f.write(t, "indicator4.csv",
		"region,structural_indicator_value\nEUR,100\nZRM,10\n")
	f.cfg.Run.Regions = []string{"EUR"}
	svc := newTestService(f.cfg)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	assert.Empty(t, res.Skipped)
}
