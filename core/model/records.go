package model

import "fmt"

// Leaf identifies one concrete transport alternative: a vehicle type
// powered by a specific technology.
type Leaf struct {
	VehicleType string
	Technology  string
}

func (l Leaf) String() string {
	return l.VehicleType + "/" + l.Technology
}

// PriceRecord holds per-year cost and intensity data for one leaf
// alternative in one region. Values are immutable once produced for a year.
type PriceRecord struct {
	Region      string
	VehicleType string
	Technology  string
	Year        int
	NonFuelCost float64 // purchase annuity plus O&M, per distance
	FuelCost    float64 // per energy unit
	Intensity   float64 // energy per distance
}

// Valid reports whether the record can place its leaf in a choice set.
// A zero or missing price marks the alternative unavailable, not free.
func (p PriceRecord) Valid() bool {
	return p.NonFuelCost > 0 && p.FuelCost >= 0 && p.Intensity >= 0
}

// ShareObservation is one historical market-share data point for a leaf.
type ShareObservation struct {
	Region      string
	VehicleType string
	Technology  string
	Year        int
	Share       float64
}

// TimeValueRecord carries the value-of-time surcharge applied to
// passenger alternatives, per distance travelled.
type TimeValueRecord struct {
	Region      string
	VehicleType string
	Year        int
	CostPerDist float64
}

// InconvenienceRecord is an exogenous non-price cost adjustment for a
// vehicle type, representing adoption barriers not visible in prices.
type InconvenienceRecord struct {
	Region      string
	VehicleType string
	Year        int
	Adjustment  float64
}

// DemandRecord supplies the exogenous total new-sales volume for a
// region and year. Aggregate demand projection happens upstream.
type DemandRecord struct {
	Region     string
	Year       int
	TotalSales float64
}

// Key identifies a node-scoped value for diagnostics. Every engine error
// carries one so a failing region/node/year can be located in the inputs.
type Key struct {
	Region string
	Node   string
	Year   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s@%d", k.Region, k.Node, k.Year)
}
