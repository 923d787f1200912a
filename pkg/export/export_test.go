package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MariannaR/edgeTransport/core/fleet"
	coremetrics "github.com/MariannaR/edgeTransport/core/metrics"
	"github.com/MariannaR/edgeTransport/core/model"
)

func TestWriteStockCSV(t *testing.T) {
	points := []coremetrics.StockPoint{
		{Region: "EUR", VehicleType: "car", Technology: "bev", Year: 2030, Share: 0.25, Price: 12.5, Intensity: 0.6},
	}
	var buf bytes.Buffer
	if err := WriteStockCSV(&buf, points); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[1] != "EUR,car,bev,2030,0.25,12.5,0.6" {
		t.Fatalf("row = %s", lines[1])
	}
}

func TestWriteCohortsCSV(t *testing.T) {
	states := []fleet.State{{
		Region: "EUR",
		Year:   2030,
		Cohorts: []fleet.Cohort{
			{Leaf: model.Leaf{VehicleType: "car", Technology: "bev"}, PurchaseYear: 2028, Initial: 100, Quantity: 70, Price: 12, Intensity: 0.6},
		},
	}}
	var buf bytes.Buffer
	if err := WriteCohortsCSV(&buf, states); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	if lines[1] != "EUR,2030,car,bev,2028,70,12,0.6" {
		t.Fatalf("row = %s", lines[1])
	}
}

func TestWriteStockJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStockJSON(&buf, []coremetrics.StockPoint{{Region: "EUR", Year: 2030}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"Region":"EUR"`) {
		t.Fatalf("json = %s", buf.String())
	}
}
