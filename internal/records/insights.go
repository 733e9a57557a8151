package records

import (
	"time"

	"alcyxob/fitness-tracker/internal/domain"
)

const suggestionWindow = 10

// SuggestBodyPart picks the least trained body part among the 10 newest workouts.
// Ties go to the body part declared first (Chest before Back, and so on).
func SuggestBodyPart(workouts []domain.Workout) domain.BodyPart {
	counts := make(map[domain.BodyPart]int, len(domain.BodyParts))
	recent := workouts
	if len(recent) > suggestionWindow {
		recent = recent[:suggestionWindow]
	}
	for _, w := range recent {
		if w.IsGym() && w.BodyPart != "" {
			counts[w.BodyPart]++
		}
	}
	best := domain.BodyParts[0]
	for _, bp := range domain.BodyParts[1:] {
		if counts[bp] < counts[best] {
			best = bp
		}
	}
	return best
}

// LastGymEntry returns the newest gym workout as a prefilled entry.
func LastGymEntry(workouts []domain.Workout) (domain.Entry, bool) {
	for _, w := range workouts {
		if w.IsGym() {
			entry := w.Entry
			entry.CardioType, entry.Distance, entry.Time = "", "", ""
			return entry, true
		}
	}
	return domain.Entry{}, false
}

// CalendarDay is one cell of the activity heatmap.
type CalendarDay struct {
	Date         string `json:"date"` // YYYY-MM-DD, UTC
	WorkoutCount int    `json:"workoutCount"`
	IsToday      bool   `json:"isToday"`
}

// ActivityCalendar counts workouts per UTC day for the trailing number of days, oldest first.
func ActivityCalendar(workouts []domain.Workout, now time.Time, days int) []CalendarDay {
	const layout = "2006-01-02"
	perDay := make(map[string]int)
	for _, w := range workouts {
		if w.Date.IsZero() {
			continue
		}
		perDay[w.Date.UTC().Format(layout)]++
	}
	today := now.UTC().Format(layout)
	out := make([]CalendarDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.UTC().AddDate(0, 0, -i).Format(layout)
		out = append(out, CalendarDay{Date: day, WorkoutCount: perDay[day], IsToday: day == today})
	}
	return out
}
