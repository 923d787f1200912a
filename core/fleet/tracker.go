package fleet

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/MariannaR/edgeTransport/core/model"
)

// Cohort is the set of vehicles of one alternative purchased in the same
// year. Price and intensity are frozen at purchase time; the surviving
// quantity is recomputed from the initial size as the cohort ages.
type Cohort struct {
	Leaf         model.Leaf
	PurchaseYear int
	Initial      float64 // quantity purchased
	Quantity     float64 // quantity surviving at the state's year
	Price        float64
	Intensity    float64
}

// State is the complete fleet of one region at one year: every cohort
// with non-zero survival, sorted by purchase year then leaf. States are
// immutable snapshots; Advance returns a fresh one each year.
type State struct {
	Region  string
	Year    int
	Cohorts []Cohort
}

// Quantity returns the total fleet size.
func (s State) Quantity() float64 {
	qs := make([]float64, len(s.Cohorts))
	for i, c := range s.Cohorts {
		qs[i] = c.Quantity
	}
	return floats.Sum(qs)
}

// Sales carries one year's new-vehicle outcome from the share evaluator.
type Sales struct {
	Total       float64
	Shares      map[model.Leaf]float64
	Prices      map[model.Leaf]float64
	Intensities map[model.Leaf]float64
}

// Stock is the stock-weighted aggregate of all active cohorts.
type Stock struct {
	Region      string
	Year        int
	Quantity    float64
	Shares      map[model.Leaf]float64 // quantity share of the whole fleet
	Prices      map[model.Leaf]float64 // quantity-weighted average price
	Intensities map[model.Leaf]float64 // quantity-weighted average intensity
}

// FleetIntegrityError reports a cohort with a negative or NaN quantity.
// It indicates an upstream share or price defect and is always fatal;
// clamping it would push a silent error into the host model.
type FleetIntegrityError struct {
	Key model.Key
	Qty float64
}

func (e *FleetIntegrityError) Error() string {
	return fmt.Sprintf("cohort %s has invalid quantity %g", e.Key, e.Qty)
}

// Tracker folds yearly sales into the running fleet state.
type Tracker struct {
	Schedules ScheduleSet
}

// NewState returns the empty fleet of a region before the first
// simulated year.
func NewState(region string, year int) State {
	return State{Region: region, Year: year}
}

// Advance ages every cohort by one step, adds the new-sales cohort for
// the given year, and aggregates the resulting stock. The input state is
// left untouched. Years must be advanced in increasing order per region.
func (t *Tracker) Advance(prior State, year int, sales Sales) (State, Stock, error) {
	if year <= prior.Year && len(prior.Cohorts) > 0 {
		return State{}, Stock{}, fmt.Errorf("fleet %s: year %d not after prior year %d", prior.Region, year, prior.Year)
	}
	next := State{Region: prior.Region, Year: year}

	for _, c := range prior.Cohorts {
		if err := t.checkCohort(prior.Region, c); err != nil {
			return State{}, Stock{}, err
		}
		age := year - c.PurchaseYear
		frac := t.Schedules.For(c.Leaf.Technology).At(age)
		if frac <= 0 {
			continue // retired
		}
		aged := c
		aged.Quantity = c.Initial * frac
		next.Cohorts = append(next.Cohorts, aged)
	}

	for _, leaf := range sortedLeaves(sales.Shares) {
		share := sales.Shares[leaf]
		if share == 0 {
			continue
		}
		qty := share * sales.Total
		c := Cohort{
			Leaf:         leaf,
			PurchaseYear: year,
			Initial:      qty,
			Quantity:     qty,
			Price:        sales.Prices[leaf],
			Intensity:    sales.Intensities[leaf],
		}
		if err := t.checkCohort(prior.Region, c); err != nil {
			return State{}, Stock{}, err
		}
		next.Cohorts = append(next.Cohorts, c)
	}

	sort.Slice(next.Cohorts, func(i, j int) bool {
		a, b := next.Cohorts[i], next.Cohorts[j]
		if a.PurchaseYear != b.PurchaseYear {
			return a.PurchaseYear < b.PurchaseYear
		}
		if a.Leaf.VehicleType != b.Leaf.VehicleType {
			return a.Leaf.VehicleType < b.Leaf.VehicleType
		}
		return a.Leaf.Technology < b.Leaf.Technology
	})

	return next, t.aggregate(next), nil
}

func (t *Tracker) checkCohort(region string, c Cohort) error {
	if c.Quantity < 0 || math.IsNaN(c.Quantity) {
		return &FleetIntegrityError{
			Key: model.Key{Region: region, Node: c.Leaf.String(), Year: c.PurchaseYear},
			Qty: c.Quantity,
		}
	}
	return nil
}

// aggregate folds the active cohorts into stock shares and
// quantity-weighted prices and intensities per leaf.
func (t *Tracker) aggregate(s State) Stock {
	stock := Stock{
		Region:      s.Region,
		Year:        s.Year,
		Shares:      make(map[model.Leaf]float64),
		Prices:      make(map[model.Leaf]float64),
		Intensities: make(map[model.Leaf]float64),
	}
	qty := make(map[model.Leaf]float64)
	for _, c := range s.Cohorts {
		qty[c.Leaf] += c.Quantity
		stock.Prices[c.Leaf] += c.Quantity * c.Price
		stock.Intensities[c.Leaf] += c.Quantity * c.Intensity
		stock.Quantity += c.Quantity
	}
	for leaf, q := range qty {
		if q == 0 {
			delete(stock.Prices, leaf)
			delete(stock.Intensities, leaf)
			continue
		}
		stock.Shares[leaf] = q / stock.Quantity
		stock.Prices[leaf] /= q
		stock.Intensities[leaf] /= q
	}
	return stock
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
