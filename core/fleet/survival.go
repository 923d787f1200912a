// Package fleet tracks the age-structured vehicle stock: cohorts are
// created from new sales, decay along a survival schedule, and aggregate
// into stock-weighted shares, prices and intensities.
package fleet

import "fmt"

// SurvivalSchedule maps vehicle age to the fraction of a cohort still in
// service. fraction(0) is 1, fractions never increase with age, and the
// schedule reaches 0 at the maximum service life.
type SurvivalSchedule struct {
	fractions []float64
}

// NewSurvivalSchedule validates the per-age fractions, indexed from age 0.
func NewSurvivalSchedule(fractions []float64) (SurvivalSchedule, error) {
	if len(fractions) == 0 {
		return SurvivalSchedule{}, fmt.Errorf("empty survival schedule")
	}
	if fractions[0] != 1 {
		return SurvivalSchedule{}, fmt.Errorf("survival at age 0 must be 1, got %g", fractions[0])
	}
	for age, f := range fractions {
		if f < 0 || f > 1 {
			return SurvivalSchedule{}, fmt.Errorf("survival fraction %g at age %d outside [0,1]", f, age)
		}
		if age > 0 && f > fractions[age-1] {
			return SurvivalSchedule{}, fmt.Errorf("survival fraction increases at age %d", age)
		}
	}
	if last := fractions[len(fractions)-1]; last != 0 {
		return SurvivalSchedule{}, fmt.Errorf("survival must reach 0 at maximum service life, ends at %g", last)
	}
	return SurvivalSchedule{fractions: append([]float64(nil), fractions...)}, nil
}

// At returns the surviving fraction at the given age. Ages beyond the
// schedule return 0.
func (s SurvivalSchedule) At(age int) float64 {
	if age < 0 || age >= len(s.fractions) {
		return 0
	}
	return s.fractions[age]
}

// MaxAge returns the age at which survival reaches 0.
func (s SurvivalSchedule) MaxAge() int {
	return len(s.fractions) - 1
}

// ScheduleSet resolves a survival schedule per technology, falling back
// to a default schedule when no override exists.
type ScheduleSet struct {
	Default   SurvivalSchedule
	Overrides map[string]SurvivalSchedule
}

// For returns the schedule governing the given technology.
func (s ScheduleSet) For(technology string) SurvivalSchedule {
	if sched, ok := s.Overrides[technology]; ok {
		return sched
	}
	return s.Default
}

// MaxAge returns the largest maximum age across default and overrides.
func (s ScheduleSet) MaxAge() int {
	max := s.Default.MaxAge()
	for _, sched := range s.Overrides {
		if a := sched.MaxAge(); a > max {
			max = a
		}
	}
	return max
}
