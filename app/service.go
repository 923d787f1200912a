// Package app wires configuration, input tables and the engine into one
// run: calibrate at the reference years, project preferences, evaluate
// new-sales shares per year and fold them through the vintage stock.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/MariannaR/edgeTransport/config"
	"github.com/MariannaR/edgeTransport/core/calibrate"
	"github.com/MariannaR/edgeTransport/core/fleet"
	"github.com/MariannaR/edgeTransport/core/logit"
	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
	"github.com/MariannaR/edgeTransport/core/model"
	"github.com/MariannaR/edgeTransport/core/nest"
	"github.com/MariannaR/edgeTransport/core/trend"
	"github.com/MariannaR/edgeTransport/infra/logger"
	"github.com/MariannaR/edgeTransport/infra/metrics"
	"github.com/MariannaR/edgeTransport/infra/tables"
	"github.com/MariannaR/edgeTransport/pkg/export"
)

// Service runs the projection pipeline described by its configuration.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	sink    coremetrics.Sink
	runID   string
	closers []func()
}

// New creates a Service from the configuration and wires the metric
// sinks.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	var closers []func()
	if cfg.Metrics.InfluxEnabled {
		isink := metrics.NewInfluxSinkWithFallback(cfg.Metrics)
		if c, ok := isink.(*metrics.InfluxSink); ok {
			closers = append(closers, c.Close)
		}
		sinks = append(sinks, isink)
	}
	var sink coremetrics.Sink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = coremetrics.MultiSink(sinks)
	}
	return &Service{cfg: cfg, log: log, sink: sink, runID: uuid.NewString(), closers: closers}, nil
}

// Close flushes and releases the metric sinks.
func (s *Service) Close() error {
	for _, c := range s.closers {
		c()
	}
	return nil
}

// Result is the complete outcome of one run.
type Result struct {
	RunID string
	// Regions holds per-region results sorted by region name.
	Regions []*RegionResult
	// Skipped lists regions halted by a degenerate nest, sorted.
	Skipped []string
}

// RegionResult is the projection of one region.
type RegionResult struct {
	Region  string
	Cluster trend.Cluster
	Sectors []*SectorResult
}

// SectorResult carries the per-year series of one nest sector.
type SectorResult struct {
	Sector string
	// Stocks and Snapshots are parallel to the simulation year grid.
	Stocks    []fleet.Stock
	Snapshots []fleet.State
}

// StockPoints flattens the stock series in deterministic order.
func (r *Result) StockPoints() []coremetrics.StockPoint {
	var out []coremetrics.StockPoint
	for _, rr := range r.Regions {
		for _, sec := range rr.Sectors {
			for _, stock := range sec.Stocks {
				for _, leaf := range sortedLeaves(stock.Shares) {
					out = append(out, coremetrics.StockPoint{
						RunID:       r.RunID,
						Region:      stock.Region,
						VehicleType: leaf.VehicleType,
						Technology:  leaf.Technology,
						Year:        stock.Year,
						Share:       stock.Shares[leaf],
						Price:       stock.Prices[leaf],
						Intensity:   stock.Intensities[leaf],
					})
				}
			}
		}
	}
	return out
}

func sortedLeaves(m map[model.Leaf]float64) []model.Leaf {
	out := make([]model.Leaf, 0, len(m))
	for leaf := range m {
		out = append(out, leaf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VehicleType != out[j].VehicleType {
			return out[i].VehicleType < out[j].VehicleType
		}
		return out[i].Technology < out[j].Technology
	})
	return out
}

// inputs groups the loaded tables shared by all region workers.
type inputs struct {
	trees      []*nest.Tree
	prices     *model.PriceTable
	shares     *model.ShareTable
	timeValues *model.TimeValueTable
	inconvBase []model.InconvenienceRecord
	indicator  trend.IndicatorMap
	schedules  fleet.ScheduleSet
	demand     *model.DemandTable
}

func (s *Service) loadInputs() (*inputs, error) {
	in := &inputs{}
	paths := s.cfg.Inputs

	topo, err := tables.LoadFile(paths.Topology, tables.ReadTopology)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	passenger := make(map[string]bool, len(s.cfg.Run.PassengerSectors))
	for _, sec := range s.cfg.Run.PassengerSectors {
		passenger[sec] = true
	}
	sectors := make([]string, 0, len(topo))
	for sec := range topo {
		sectors = append(sectors, sec)
	}
	sort.Strings(sectors)
	for _, sec := range sectors {
		tree, err := nest.New(sec, passenger[sec], topo[sec])
		if err != nil {
			return nil, err
		}
		in.trees = append(in.trees, tree)
	}

	priceRecs, err := tables.LoadFile(paths.Prices, tables.ReadPrices)
	if err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	in.prices = model.NewPriceTable(priceRecs)

	shareRecs, err := tables.LoadFile(paths.Shares, tables.ReadShares)
	if err != nil {
		return nil, fmt.Errorf("shares: %w", err)
	}
	in.shares = model.NewShareTable(shareRecs)

	if paths.TimeValues != "" {
		tvRecs, err := tables.LoadFile(paths.TimeValues, tables.ReadTimeValues)
		if err != nil {
			return nil, fmt.Errorf("time values: %w", err)
		}
		in.timeValues = model.NewTimeValueTable(tvRecs)
	}

	if s.cfg.Scenario.InconvenienceCosts {
		in.inconvBase, err = tables.LoadFile(paths.Inconvenience, tables.ReadInconvenience)
		if err != nil {
			return nil, fmt.Errorf("inconvenience: %w", err)
		}
	}

	indicator, err := tables.LoadFile(paths.Indicator, tables.ReadIndicator)
	if err != nil {
		return nil, fmt.Errorf("indicator: %w", err)
	}
	in.indicator = indicator

	survivalRows, err := tables.LoadFile(paths.Survival, tables.ReadSurvival)
	if err != nil {
		return nil, fmt.Errorf("survival: %w", err)
	}
	in.schedules, err = tables.BuildSchedules(survivalRows)
	if err != nil {
		return nil, err
	}

	demandRecs, err := tables.LoadFile(paths.Demand, tables.ReadDemand)
	if err != nil {
		return nil, fmt.Errorf("demand: %w", err)
	}
	in.demand = model.NewDemandTable(demandRecs)
	return in, nil
}

// Run executes the pipeline. Regions are processed concurrently; years
// within a region strictly in order. Degenerate nests halt their region
// only; calibration gaps and fleet integrity defects abort the run.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	in, err := s.loadInputs()
	if err != nil {
		return nil, err
	}

	regions := append([]string(nil), s.cfg.Run.Regions...)
	if len(regions) == 0 {
		for region := range in.indicator {
			regions = append(regions, region)
		}
	}
	sort.Strings(regions)

	clusters, err := trend.Assign(regions, in.indicator)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: s.runID}
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		fatal error
	)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	workers := s.cfg.Run.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for _, region := range regions {
		if runCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(region string) {
			defer wg.Done()
			defer func() { <-sem }()
			rr, err := s.runRegion(in, region, clusters[region])
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Regions = append(result.Regions, rr)
			case regionRecoverable(err):
				s.log.Warnf("region %s halted: %v", region, err)
				result.Skipped = append(result.Skipped, region)
			default:
				if fatal == nil {
					fatal = fmt.Errorf("region %s: %w", region, err)
					cancel()
				}
			}
		}(region)
	}
	wg.Wait()
	if fatal != nil {
		return nil, fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(result.Regions, func(i, j int) bool { return result.Regions[i].Region < result.Regions[j].Region })
	sort.Strings(result.Skipped)

	points := result.StockPoints()
	if err := s.sink.RecordStock(points); err != nil {
		s.log.Errorf("record stock: %v", err)
	}
	for _, rr := range result.Regions {
		if err := s.sink.RecordRegionDone(rr.Region, len(s.cfg.Run.Years())); err != nil {
			s.log.Errorf("record region: %v", err)
		}
	}

	if s.cfg.Output.Dir != "" {
		if err := s.export(result); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	s.log.Infof("run %s: %d regions projected, %d skipped", s.runID, len(result.Regions), len(result.Skipped))
	return result, nil
}

// Calibrate runs only the calibration stage and returns the preference
// weights per region and sector at the last reference year. Regions
// whose root nest degenerates are omitted.
func (s *Service) Calibrate(ctx context.Context) (map[string]map[string]map[string]float64, error) {
	in, err := s.loadInputs()
	if err != nil {
		return nil, err
	}
	regions := append([]string(nil), s.cfg.Run.Regions...)
	if len(regions) == 0 {
		for region := range in.indicator {
			regions = append(regions, region)
		}
	}
	sort.Strings(regions)

	lastRef := s.cfg.Run.ReferenceYears[len(s.cfg.Run.ReferenceYears)-1]
	mode := calibrate.ModePreference
	var inconv *model.InconvenienceTable
	if s.cfg.Scenario.InconvenienceCosts {
		mode = calibrate.ModeInconvenience
		inconv = model.NewInconvenienceTable(in.inconvBase)
	}

	out := make(map[string]map[string]map[string]float64, len(regions))
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bySector := make(map[string]map[string]float64, len(in.trees))
		for _, tree := range in.trees {
			cal := calibrate.New(tree, mode, s.log)
			prefs, err := cal.Calibrate(in.shares, logit.Inputs{
				Region:        region,
				Year:          lastRef,
				Prices:        in.prices,
				TimeValues:    in.timeValues,
				Inconvenience: inconv,
			})
			if err != nil {
				if regionRecoverable(err) {
					s.log.Warnf("region %s halted: %v", region, err)
					bySector = nil
					break
				}
				return nil, fmt.Errorf("region %s: %w", region, err)
			}
			bySector[tree.Sector] = prefs
		}
		if bySector != nil {
			out[region] = bySector
		}
	}
	return out, nil
}

// regionRecoverable reports whether the error halts one region rather
// than the whole run.
func regionRecoverable(err error) bool {
	var degenerate *logit.DegenerateNestError
	return errors.As(err, &degenerate)
}

func (s *Service) runRegion(in *inputs, region string, cluster trend.Cluster) (*RegionResult, error) {
	refYears := s.cfg.Run.ReferenceYears
	lastRef := refYears[len(refYears)-1]
	years := s.cfg.Run.Years()

	var inconv *model.InconvenienceTable
	if s.cfg.Scenario.InconvenienceCosts {
		inconv = s.inconvenienceTable(in.inconvBase, lastRef, years)
	}

	mode := calibrate.ModePreference
	if s.cfg.Scenario.InconvenienceCosts {
		mode = calibrate.ModeInconvenience
	}

	rr := &RegionResult{Region: region, Cluster: cluster}
	for _, tree := range in.trees {
		cal := calibrate.New(tree, mode, s.log)
		var prefs map[string]float64
		for _, refYear := range refYears {
			p, err := cal.Calibrate(in.shares, logit.Inputs{
				Region:        region,
				Year:          refYear,
				Prices:        in.prices,
				TimeValues:    in.timeValues,
				Inconvenience: inconv,
			})
			if err != nil {
				return nil, fmt.Errorf("calibrate %s at %d: %w", tree.Sector, refYear, err)
			}
			prefs = p
			s.log.Debugf("calibrated %s/%s at %d: %d nodes", region, tree.Sector, refYear, len(p))
		}

		projector := trend.Projector{Config: s.cfg.Scenario.TrendConfig(lastRef)}
		prefsByYear := projector.Project(prefs, cluster, years)

		tracker := fleet.Tracker{Schedules: in.schedules}
		state := fleet.NewState(region, lastRef)
		sector := &SectorResult{Sector: tree.Sector}
		for _, year := range years {
			res, err := logit.Evaluate(tree, prefsByYear[year], logit.Inputs{
				Region:        region,
				Year:          year,
				Prices:        in.prices,
				TimeValues:    in.timeValues,
				Inconvenience: inconv,
			})
			if err != nil {
				return nil, fmt.Errorf("evaluate %s at %d: %w", tree.Sector, year, err)
			}
			s.reportExclusions(region, year, res)

			total, ok := in.demand.Lookup(region, year)
			if !ok {
				return nil, fmt.Errorf("no demand for %s at %d", region, year)
			}
			sales := fleet.Sales{
				Total:       total,
				Shares:      res.LeafShares,
				Prices:      make(map[model.Leaf]float64, len(res.LeafShares)),
				Intensities: make(map[model.Leaf]float64, len(res.LeafShares)),
			}
			for _, leafNode := range tree.Leaves() {
				leaf := leafNode.Leaf()
				if _, live := res.LeafShares[leaf]; !live {
					continue
				}
				sales.Prices[leaf] = res.Costs[leafNode.Key]
				if pr, ok := in.prices.Lookup(region, leaf, year); ok {
					sales.Intensities[leaf] = pr.Intensity
				}
			}

			next, stock, err := tracker.Advance(state, year, sales)
			if err != nil {
				return nil, err
			}
			state = next
			sector.Stocks = append(sector.Stocks, stock)
			sector.Snapshots = append(sector.Snapshots, state)
		}
		rr.Sectors = append(rr.Sectors, sector)
	}
	return rr, nil
}

// inconvenienceTable combines the observed adjustments at the reference
// years with the decayed path over the simulation grid.
func (s *Service) inconvenienceTable(all []model.InconvenienceRecord, lastRef int, years []int) *model.InconvenienceTable {
	var base []model.InconvenienceRecord
	for _, r := range all {
		if r.Year == lastRef {
			base = append(base, r)
		}
	}
	path := s.cfg.Scenario.InconveniencePath(lastRef)
	combined := append(append([]model.InconvenienceRecord(nil), all...), path.Extend(base, years)...)
	return model.NewInconvenienceTable(combined)
}

func (s *Service) reportExclusions(region string, year int, res *logit.Result) {
	for _, ex := range res.Excluded {
		s.log.Infow("leaf excluded", map[string]any{
			"region": ex.Key.Region, "node": ex.Key.Node, "year": ex.Key.Year,
		})
		if err := s.sink.RecordExclusion(region, ex.Key.Node, year); err != nil {
			s.log.Errorf("record exclusion: %v", err)
		}
	}
	for _, en := range res.EmptyNests {
		s.log.Infow("empty nest dropped", map[string]any{
			"region": en.Key.Region, "node": en.Key.Node, "year": en.Key.Year,
		})
		if err := s.sink.RecordExclusion(region, en.Key.Node, year); err != nil {
			s.log.Errorf("record exclusion: %v", err)
		}
	}
}

func (s *Service) export(result *Result) error {
	dir := s.cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ext := s.cfg.Output.Format

	var snapshots []fleet.State
	for _, rr := range result.Regions {
		for _, sec := range rr.Sectors {
			snapshots = append(snapshots, sec.Snapshots...)
		}
	}

	stockPath := filepath.Join(dir, "stock."+ext)
	cohortPath := filepath.Join(dir, "cohorts."+ext)
	if err := writeFile(stockPath, func(f *os.File) error {
		if ext == "json" {
			return export.WriteStockJSON(f, result.StockPoints())
		}
		return export.WriteStockCSV(f, result.StockPoints())
	}); err != nil {
		return err
	}
	return writeFile(cohortPath, func(f *os.File) error {
		if ext == "json" {
			return export.WriteCohortsJSON(f, snapshots)
		}
		return export.WriteCohortsCSV(f, snapshots)
	})
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
