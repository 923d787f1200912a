// Package export serialises projection results for the host model's
// downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/MariannaR/edgeTransport/core/fleet"
	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
)

// WriteStockJSON writes the stock series to w in JSON format.
func WriteStockJSON(w io.Writer, points []coremetrics.StockPoint) error {
	enc := json.NewEncoder(w)
	return enc.Encode(points)
}

// WriteStockCSV writes the stock series to w as CSV.
func WriteStockCSV(w io.Writer, points []coremetrics.StockPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "vehicle_type", "technology", "year", "stock_share", "stock_price", "stock_intensity"}); err != nil {
		return err
	}
	for _, p := range points {
		rec := []string{
			p.Region,
			p.VehicleType,
			p.Technology,
			strconv.Itoa(p.Year),
			strconv.FormatFloat(p.Share, 'f', -1, 64),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			strconv.FormatFloat(p.Intensity, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cohortRow flattens one cohort of one snapshot for serialisation.
type cohortRow struct {
	Region       string  `json:"region"`
	Year         int     `json:"year"`
	VehicleType  string  `json:"vehicle_type"`
	Technology   string  `json:"technology"`
	PurchaseYear int     `json:"purchase_year"`
	Quantity     float64 `json:"quantity"`
	Price        float64 `json:"price"`
	Intensity    float64 `json:"intensity"`
}

func flatten(states []fleet.State) []cohortRow {
	var rows []cohortRow
	for _, st := range states {
		for _, c := range st.Cohorts {
			rows = append(rows, cohortRow{
				Region:       st.Region,
				Year:         st.Year,
				VehicleType:  c.Leaf.VehicleType,
				Technology:   c.Leaf.Technology,
				PurchaseYear: c.PurchaseYear,
				Quantity:     c.Quantity,
				Price:        c.Price,
				Intensity:    c.Intensity,
			})
		}
	}
	return rows
}

// WriteCohortsJSON writes the fleet snapshots to w in JSON format.
func WriteCohortsJSON(w io.Writer, states []fleet.State) error {
	enc := json.NewEncoder(w)
	return enc.Encode(flatten(states))
}

// WriteCohortsCSV writes the fleet snapshots to w as CSV.
func WriteCohortsCSV(w io.Writer, states []fleet.State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "year", "vehicle_type", "technology", "purchase_year", "quantity", "price", "intensity"}); err != nil {
		return err
	}
	for _, r := range flatten(states) {
		rec := []string{
			r.Region,
			strconv.Itoa(r.Year),
			r.VehicleType,
			r.Technology,
			strconv.Itoa(r.PurchaseYear),
			strconv.FormatFloat(r.Quantity, 'f', -1, 64),
			strconv.FormatFloat(r.Price, 'f', -1, 64),
			strconv.FormatFloat(r.Intensity, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
