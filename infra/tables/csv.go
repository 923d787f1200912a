// Package tables reads the engine's input tables from CSV files. It
// assumes unit-consistent data; harmonisation happens upstream.
package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/MariannaR/edgeTransport/core/model"
	"github.com/MariannaR/edgeTransport/core/nest"
)

// SurvivalRow is one raw survival-schedule entry. An empty technology
// names the default schedule.
type SurvivalRow struct {
	Technology string
	Age        int
	Fraction   float64
}

type rowReader struct {
	name   string
	csv    *csv.Reader
	line   int
	fields map[string]int
}

func newRowReader(name string, r io.Reader, header []string) (*rowReader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	fields := make(map[string]int, len(first))
	for i, col := range first {
		fields[col] = i
	}
	for _, col := range header {
		if _, ok := fields[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}
	return &rowReader{name: name, csv: cr, line: 1, fields: fields}, nil
}

func (r *rowReader) next() ([]string, error) {
	rec, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.line++
	return rec, nil
}

func (r *rowReader) str(rec []string, col string) string {
	return rec[r.fields[col]]
}

func (r *rowReader) float(rec []string, col string) (float64, error) {
	v, err := strconv.ParseFloat(rec[r.fields[col]], 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %s: %w", r.name, r.line, col, err)
	}
	return v, nil
}

func (r *rowReader) int(rec []string, col string) (int, error) {
	v, err := strconv.Atoi(rec[r.fields[col]])
	if err != nil {
		return 0, fmt.Errorf("%s line %d: column %s: %w", r.name, r.line, col, err)
	}
	return v, nil
}

// ReadPrices parses the price/intensity table.
func ReadPrices(r io.Reader) ([]model.PriceRecord, error) {
	rr, err := newRowReader("prices", r, []string{"region", "vehicle_type", "technology", "year", "non_fuel_cost", "fuel_cost", "energy_intensity"})
	if err != nil {
		return nil, err
	}
	var out []model.PriceRecord
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		year, err := rr.int(rec, "year")
		if err != nil {
			return nil, err
		}
		nonFuel, err := rr.float(rec, "non_fuel_cost")
		if err != nil {
			return nil, err
		}
		fuel, err := rr.float(rec, "fuel_cost")
		if err != nil {
			return nil, err
		}
		intensity, err := rr.float(rec, "energy_intensity")
		if err != nil {
			return nil, err
		}
		out = append(out, model.PriceRecord{
			Region:      rr.str(rec, "region"),
			VehicleType: rr.str(rec, "vehicle_type"),
			Technology:  rr.str(rec, "technology"),
			Year:        year,
			NonFuelCost: nonFuel,
			FuelCost:    fuel,
			Intensity:   intensity,
		})
	}
}

// ReadShares parses the historical share table.
func ReadShares(r io.Reader) ([]model.ShareObservation, error) {
	rr, err := newRowReader("shares", r, []string{"region", "vehicle_type", "technology", "reference_year", "observed_share"})
	if err != nil {
		return nil, err
	}
	var out []model.ShareObservation
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		year, err := rr.int(rec, "reference_year")
		if err != nil {
			return nil, err
		}
		share, err := rr.float(rec, "observed_share")
		if err != nil {
			return nil, err
		}
		if share < 0 || share > 1 {
			return nil, fmt.Errorf("shares line %d: observed share %g outside [0,1]", rr.line, share)
		}
		out = append(out, model.ShareObservation{
			Region:      rr.str(rec, "region"),
			VehicleType: rr.str(rec, "vehicle_type"),
			Technology:  rr.str(rec, "technology"),
			Year:        year,
			Share:       share,
		})
	}
}

// ReadTopology parses the nest topology table, grouped by sector.
func ReadTopology(r io.Reader) (map[string][]nest.Node, error) {
	rr, err := newRowReader("topology", r, []string{"sector", "level", "node_key", "parent_key", "exponent"})
	if err != nil {
		return nil, err
	}
	out := make(map[string][]nest.Node)
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		level, err := rr.int(rec, "level")
		if err != nil {
			return nil, err
		}
		exponent, err := rr.float(rec, "exponent")
		if err != nil {
			return nil, err
		}
		n := nest.Node{
			Key:      rr.str(rec, "node_key"),
			Parent:   rr.str(rec, "parent_key"),
			Level:    level,
			Exponent: exponent,
		}
		// Leaf mapping columns are optional for internal nodes.
		if _, ok := rr.fields["vehicle_type"]; ok {
			n.VehicleType = rr.str(rec, "vehicle_type")
		}
		if _, ok := rr.fields["technology"]; ok {
			n.Technology = rr.str(rec, "technology")
		}
		sector := rr.str(rec, "sector")
		out[sector] = append(out[sector], n)
	}
}

// ReadTimeValues parses the value-of-time table.
func ReadTimeValues(r io.Reader) ([]model.TimeValueRecord, error) {
	rr, err := newRowReader("time_values", r, []string{"region", "vehicle_type", "year", "time_cost_per_distance"})
	if err != nil {
		return nil, err
	}
	var out []model.TimeValueRecord
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		year, err := rr.int(rec, "year")
		if err != nil {
			return nil, err
		}
		cost, err := rr.float(rec, "time_cost_per_distance")
		if err != nil {
			return nil, err
		}
		out = append(out, model.TimeValueRecord{
			Region:      rr.str(rec, "region"),
			VehicleType: rr.str(rec, "vehicle_type"),
			Year:        year,
			CostPerDist: cost,
		})
	}
}

// ReadInconvenience parses the inconvenience-cost table.
func ReadInconvenience(r io.Reader) ([]model.InconvenienceRecord, error) {
	rr, err := newRowReader("inconvenience", r, []string{"region", "vehicle_type", "year", "cost_adjustment"})
	if err != nil {
		return nil, err
	}
	var out []model.InconvenienceRecord
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		year, err := rr.int(rec, "year")
		if err != nil {
			return nil, err
		}
		adj, err := rr.float(rec, "cost_adjustment")
		if err != nil {
			return nil, err
		}
		out = append(out, model.InconvenienceRecord{
			Region:      rr.str(rec, "region"),
			VehicleType: rr.str(rec, "vehicle_type"),
			Year:        year,
			Adjustment:  adj,
		})
	}
}

// ReadIndicator parses the cluster indicator table.
func ReadIndicator(r io.Reader) (map[string]float64, error) {
	rr, err := newRowReader("indicator", r, []string{"region", "structural_indicator_value"})
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := rr.float(rec, "structural_indicator_value")
		if err != nil {
			return nil, err
		}
		out[rr.str(rec, "region")] = v
	}
}

// ReadSurvival parses the survival schedule table.
func ReadSurvival(r io.Reader) ([]SurvivalRow, error) {
	rr, err := newRowReader("survival", r, []string{"technology", "age", "surviving_fraction"})
	if err != nil {
		return nil, err
	}
	var out []SurvivalRow
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		age, err := rr.int(rec, "age")
		if err != nil {
			return nil, err
		}
		frac, err := rr.float(rec, "surviving_fraction")
		if err != nil {
			return nil, err
		}
		out = append(out, SurvivalRow{
			Technology: rr.str(rec, "technology"),
			Age:        age,
			Fraction:   frac,
		})
	}
}

// ReadDemand parses the exogenous new-sales volume table.
func ReadDemand(r io.Reader) ([]model.DemandRecord, error) {
	rr, err := newRowReader("demand", r, []string{"region", "year", "total_sales"})
	if err != nil {
		return nil, err
	}
	var out []model.DemandRecord
	for {
		rec, err := rr.next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		year, err := rr.int(rec, "year")
		if err != nil {
			return nil, err
		}
		total, err := rr.float(rec, "total_sales")
		if err != nil {
			return nil, err
		}
		out = append(out, model.DemandRecord{
			Region:     rr.str(rec, "region"),
			Year:       year,
			TotalSales: total,
		})
	}
}

// LoadFile opens path and parses it with the given reader function.
func LoadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f)
}
