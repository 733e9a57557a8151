package records

import (
	"strings"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
)

const (
	minSeriesPoints = 2
	maxSeriesPoints = 10
)

// ExercisePoint is one gym session of an exercise progress chart.
type ExercisePoint struct {
	Date      time.Time `json:"date"`
	Weight    float64   `json:"weight"`
	Volume    float64   `json:"volume"`
	TotalLoad float64   `json:"totalLoad"`
}

// CardioPoint is one session of a cardio progress chart. Nil means "not logged".
type CardioPoint struct {
	Date     time.Time `json:"date"`
	Distance *float64  `json:"distance"`
	Time     *float64  `json:"time"`
	Pace     *float64  `json:"pace"`
}

// BuildExerciseSeries groups gym workouts by exercise, oldest first. Exercises logged
// fewer than twice are dropped and each series keeps its 10 most recent points.
// Volume is sets x reps (missing counts as 1) and total load is weight x volume.
func BuildExerciseSeries(workouts []domain.Workout) map[string][]ExercisePoint {
	series := make(map[string][]ExercisePoint)
	for _, w := range chronological(workouts) {
		if !w.IsGym() {
			continue
		}
		name := strings.TrimSpace(w.Exercise)
		if name == "" {
			continue
		}
		weight, _ := ParseNumber(string(w.Weight))
		volume := numberOr(w.Sets, 1) * numberOr(w.Reps, 1)
		series[name] = append(series[name], ExercisePoint{
			Date:      w.Date,
			Weight:    weight,
			Volume:    volume,
			TotalLoad: weight * volume,
		})
	}
	return trimSeries(series)
}

// BuildCardioSeries groups cardio workouts by cardio type the same way.
// Pace is time / distance when both are positive.
func BuildCardioSeries(workouts []domain.Workout) map[domain.CardioType][]CardioPoint {
	series := make(map[domain.CardioType][]CardioPoint)
	for _, w := range chronological(workouts) {
		if !w.IsCardio() {
			continue
		}
		kind := w.CardioType
		if kind == "" {
			kind = domain.CardioOther
		}
		point := CardioPoint{
			Date:     w.Date,
			Distance: optionalNumber(w.Distance),
			Time:     optionalNumber(w.Time),
		}
		if point.Distance != nil && point.Time != nil {
			pace := *point.Time / *point.Distance
			point.Pace = &pace
		}
		series[kind] = append(series[kind], point)
	}
	return trimSeries(series)
}

func trimSeries[K comparable, P any](series map[K][]P) map[K][]P {
	for key, points := range series {
		if len(points) < minSeriesPoints {
			delete(series, key)
			continue
		}
		if len(points) > maxSeriesPoints {
			series[key] = points[len(points)-maxSeriesPoints:]
		}
	}
	return series
}
