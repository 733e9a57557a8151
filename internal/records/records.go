// Package records derives personal records, counters and chart series from a workout list.
// Every function here is pure: workouts go in, freshly computed values come out.
package records

import (
	"sort"
	"strings"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
)

// Record is the heaviest logged weight for one exercise.
type Record struct {
	Weight    float64   `json:"weight"`
	Date      time.Time `json:"date"`
	WorkoutID string    `json:"workoutId"`
}

// Counters are the headline numbers of a profile.
type Counters struct {
	Total    int `json:"total"`
	ThisWeek int `json:"thisWeek"`
	Gym      int `json:"gym"`
	Cardio   int `json:"cardio"`
}

// chronological returns a copy of the workouts sorted oldest first.
// Lists are stored newest first, so equal dates keep their reversed storage order.
func chronological(workouts []domain.Workout) []domain.Workout {
	out := make([]domain.Workout, len(workouts))
	for i := range workouts {
		out[len(workouts)-1-i] = workouts[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ComputeRecords scans gym workouts oldest first and keeps the maximum weight per
// exercise name. Only a strictly greater weight replaces a record, so ties keep the
// earliest holder. Entries without an exercise name are skipped.
func ComputeRecords(workouts []domain.Workout) map[string]Record {
	recs := make(map[string]Record)
	for _, w := range chronological(workouts) {
		if !w.IsGym() {
			continue
		}
		name := strings.TrimSpace(w.Exercise)
		if name == "" {
			continue
		}
		weight, _ := ParseNumber(string(w.Weight))
		current, seen := recs[name]
		if !seen || weight > current.Weight {
			recs[name] = Record{Weight: weight, Date: w.Date, WorkoutID: w.ID}
		}
	}
	return recs
}

// ComputeCounters counts all workouts, those inside the trailing 7x24h window, and each type.
func ComputeCounters(workouts []domain.Workout, now time.Time) Counters {
	weekStart := now.Add(-7 * 24 * time.Hour)
	var c Counters
	for _, w := range workouts {
		c.Total++
		if !w.Date.Before(weekStart) && !w.Date.After(now) {
			c.ThisWeek++
		}
		switch w.Type {
		case domain.TypeGym:
			c.Gym++
		case domain.TypeCardio:
			c.Cardio++
		}
	}
	return c
}
