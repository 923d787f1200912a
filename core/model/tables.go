package model

// PriceTable indexes price records by leaf and year for one run.
type PriceTable struct {
	byKey map[priceKey]PriceRecord
}

type priceKey struct {
	region string
	leaf   Leaf
	year   int
}

// NewPriceTable builds a lookup table from raw records. Later records
// overwrite earlier ones with the same key.
func NewPriceTable(records []PriceRecord) *PriceTable {
	t := &PriceTable{byKey: make(map[priceKey]PriceRecord, len(records))}
	for _, r := range records {
		k := priceKey{region: r.Region, leaf: Leaf{r.VehicleType, r.Technology}, year: r.Year}
		t.byKey[k] = r
	}
	return t
}

// Lookup returns the price record for a leaf in a region and year.
func (t *PriceTable) Lookup(region string, leaf Leaf, year int) (PriceRecord, bool) {
	r, ok := t.byKey[priceKey{region: region, leaf: leaf, year: year}]
	return r, ok
}

// ShareTable indexes historical share observations.
type ShareTable struct {
	byKey map[priceKey]float64
}

// NewShareTable builds a lookup table from observations.
func NewShareTable(obs []ShareObservation) *ShareTable {
	t := &ShareTable{byKey: make(map[priceKey]float64, len(obs))}
	for _, o := range obs {
		k := priceKey{region: o.Region, leaf: Leaf{o.VehicleType, o.Technology}, year: o.Year}
		t.byKey[k] = o.Share
	}
	return t
}

// Lookup returns the observed share of a leaf in a region and year.
func (t *ShareTable) Lookup(region string, leaf Leaf, year int) (float64, bool) {
	s, ok := t.byKey[priceKey{region: region, leaf: leaf, year: year}]
	return s, ok
}

type vtKey struct {
	region      string
	vehicleType string
	year        int
}

// TimeValueTable indexes value-of-time surcharges by vehicle type.
type TimeValueTable struct {
	byKey map[vtKey]float64
}

// NewTimeValueTable builds a lookup table from records.
func NewTimeValueTable(records []TimeValueRecord) *TimeValueTable {
	t := &TimeValueTable{byKey: make(map[vtKey]float64, len(records))}
	for _, r := range records {
		t.byKey[vtKey{r.Region, r.VehicleType, r.Year}] = r.CostPerDist
	}
	return t
}

// Lookup returns the time surcharge for a vehicle type, or 0 when absent.
func (t *TimeValueTable) Lookup(region, vehicleType string, year int) float64 {
	if t == nil {
		return 0
	}
	return t.byKey[vtKey{region, vehicleType, year}]
}

// InconvenienceTable indexes non-price cost adjustments by vehicle type.
type InconvenienceTable struct {
	byKey map[vtKey]float64
}

// NewInconvenienceTable builds a lookup table from records.
func NewInconvenienceTable(records []InconvenienceRecord) *InconvenienceTable {
	t := &InconvenienceTable{byKey: make(map[vtKey]float64, len(records))}
	for _, r := range records {
		t.byKey[vtKey{r.Region, r.VehicleType, r.Year}] = r.Adjustment
	}
	return t
}

// Lookup returns the cost adjustment for a vehicle type, or 0 when absent.
func (t *InconvenienceTable) Lookup(region, vehicleType string, year int) float64 {
	if t == nil {
		return 0
	}
	return t.byKey[vtKey{region, vehicleType, year}]
}

// DemandTable indexes exogenous total new-sales volumes.
type DemandTable struct {
	byKey map[demandKey]float64
}

type demandKey struct {
	region string
	year   int
}

// NewDemandTable builds a lookup table from records.
func NewDemandTable(records []DemandRecord) *DemandTable {
	t := &DemandTable{byKey: make(map[demandKey]float64, len(records))}
	for _, r := range records {
		t.byKey[demandKey{r.Region, r.Year}] = r.TotalSales
	}
	return t
}

// Lookup returns the total new-sales volume for a region and year.
func (t *DemandTable) Lookup(region string, year int) (float64, bool) {
	v, ok := t.byKey[demandKey{region, year}]
	return v, ok
}
