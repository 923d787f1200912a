package tables

import (
	"fmt"
	"sort"

	"github.com/MariannaR/edgeTransport/core/fleet"
)

// BuildSchedules assembles the per-technology survival schedules from raw
// rows. Rows with an empty or "default" technology form the default
// schedule, which must be present; ages must be consecutive from 0.
func BuildSchedules(rows []SurvivalRow) (fleet.ScheduleSet, error) {
	byTech := make(map[string][]SurvivalRow)
	for _, row := range rows {
		tech := row.Technology
		if tech == "default" {
			tech = ""
		}
		byTech[tech] = append(byTech[tech], row)
	}
	if _, ok := byTech[""]; !ok {
		return fleet.ScheduleSet{}, fmt.Errorf("survival table has no default schedule")
	}

	set := fleet.ScheduleSet{Overrides: make(map[string]fleet.SurvivalSchedule)}
	for tech, group := range byTech {
		sort.Slice(group, func(i, j int) bool { return group[i].Age < group[j].Age })
		fractions := make([]float64, len(group))
		for i, row := range group {
			if row.Age != i {
				return fleet.ScheduleSet{}, fmt.Errorf("survival schedule %q: ages not consecutive from 0 (age %d at position %d)", tech, row.Age, i)
			}
			fractions[i] = row.Fraction
		}
		sched, err := fleet.NewSurvivalSchedule(fractions)
		if err != nil {
			return fleet.ScheduleSet{}, fmt.Errorf("survival schedule %q: %w", tech, err)
		}
		if tech == "" {
			set.Default = sched
		} else {
			set.Overrides[tech] = sched
		}
	}
	return set, nil
}
