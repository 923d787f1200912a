package tables

import (
	"strings"
	"testing"
)

func TestReadPrices(t *testing.T) {
	data := `region,vehicle_type,technology,year,non_fuel_cost,fuel_cost,energy_intensity
EUR,car,liquids,2020,5.5,2.0,1.8
EUR,car,bev,2020,7.1,1.0,0.6
`
	recs, err := ReadPrices(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	if recs[1].Technology != "bev" || recs[1].Intensity != 0.6 {
		t.Fatalf("bad record %+v", recs[1])
	}
}

func TestReadPricesBadData(t *testing.T) {
	if _, err := ReadPrices(strings.NewReader("region,year\nEUR,2020\n")); err == nil {
		t.Fatal("expected error for missing columns")
	}
	data := "region,vehicle_type,technology,year,non_fuel_cost,fuel_cost,energy_intensity\nEUR,car,liquids,2020,abc,2,1\n"
	if _, err := ReadPrices(strings.NewReader(data)); err == nil {
		t.Fatal("expected error for bad float")
	}
}

func TestReadSharesRange(t *testing.T) {
	data := "region,vehicle_type,technology,reference_year,observed_share\nEUR,car,liquids,2015,1.3\n"
	if _, err := ReadShares(strings.NewReader(data)); err == nil {
		t.Fatal("expected error for share outside [0,1]")
	}
}

func TestReadTopology(t *testing.T) {
	data := `sector,level,node_key,parent_key,exponent,vehicle_type,technology
passenger,0,road,,2,,
passenger,1,car,road,0.5,,
passenger,2,car_liq,car,0,car,liquids
freight,0,truck,,1,,
freight,1,truck_liq,truck,0,truck,liquids
`
	got, err := ReadTopology(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sectors = %d", len(got))
	}
	if len(got["passenger"]) != 3 || got["passenger"][2].VehicleType != "car" {
		t.Fatalf("passenger nodes = %+v", got["passenger"])
	}
}

func TestReadIndicator(t *testing.T) {
	data := "region,structural_indicator_value\nEUR,55\nUSA,10\n"
	got, err := ReadIndicator(strings.NewReader(data))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got["USA"] != 10 || got["EUR"] != 55 {
		t.Fatalf("indicator = %v", got)
	}
}

func TestBuildSchedules(t *testing.T) {
	rows := []SurvivalRow{
		{Technology: "default", Age: 0, Fraction: 1},
		{Technology: "default", Age: 1, Fraction: 0.5},
		{Technology: "default", Age: 2, Fraction: 0},
		{Technology: "bev", Age: 1, Fraction: 0.7},
		{Technology: "bev", Age: 0, Fraction: 1},
		{Technology: "bev", Age: 2, Fraction: 0.2},
		{Technology: "bev", Age: 3, Fraction: 0},
	}
	set, err := BuildSchedules(rows)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := set.For("liquids").At(1); got != 0.5 {
		t.Fatalf("default schedule at 1 = %g", got)
	}
	if got := set.For("bev").At(2); got != 0.2 {
		t.Fatalf("bev schedule at 2 = %g", got)
	}
	if set.MaxAge() != 3 {
		t.Fatalf("max age = %d", set.MaxAge())
	}
}

func TestBuildSchedulesErrors(t *testing.T) {
	if _, err := BuildSchedules([]SurvivalRow{{Technology: "bev", Age: 0, Fraction: 1}}); err == nil {
		t.Fatal("expected error for missing default")
	}
	rows := []SurvivalRow{
		{Age: 0, Fraction: 1},
		{Age: 2, Fraction: 0},
	}
	if _, err := BuildSchedules(rows); err == nil {
		t.Fatal("expected error for gap in ages")
	}
}
