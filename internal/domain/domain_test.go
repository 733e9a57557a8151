package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTimeOfDayAt(t *testing.T) {
	cases := map[int]TimeOfDay{
		0:  Morning,
		11: Morning,
		12: Afternoon,
		17: Afternoon,
		18: Evening,
		23: Evening,
	}
	for hour, want := range cases {
		at := time.Date(2024, 5, 1, hour, 30, 0, 0, time.Local)
		if got := TimeOfDayAt(at); got != want {
			t.Errorf("Expected %s at %02d:30, got %s", want, hour, got)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	t.Run("GymRequiresExerciseSetsReps", func(t *testing.T) {
		entry := Entry{Type: TypeGym, Sets: "3", Reps: "10"}.Normalize()
		err := entry.Validate()
		if !errors.Is(err, ErrInvalidEntry) {
			t.Fatalf("Expected ErrInvalidEntry, got %v", err)
		}
		if !strings.Contains(err.Error(), "exercise") {
			t.Errorf("Expected message about exercise, got %q", err.Error())
		}

		entry.Exercise = "Bench"
		entry.Reps = ""
		if err := entry.Validate(); err == nil || !strings.Contains(err.Error(), "reps") {
			t.Errorf("Expected reps error, got %v", err)
		}
	})

	t.Run("GymDefaults", func(t *testing.T) {
		entry := Entry{Type: TypeGym, Exercise: "  Squat ", Sets: "3", Reps: "5"}.Normalize()
		if err := entry.Validate(); err != nil {
			t.Fatalf("Expected valid entry, got %v", err)
		}
		if entry.Exercise != "Squat" {
			t.Errorf("Expected trimmed exercise, got %q", entry.Exercise)
		}
		if entry.BodyPart != BodyPartChest || entry.Feeling != FeelingGood {
			t.Errorf("Expected Chest/good defaults, got %s/%s", entry.BodyPart, entry.Feeling)
		}
	})

	t.Run("CardioRequiresType", func(t *testing.T) {
		if err := (Entry{Type: TypeCardio}).Validate(); err == nil {
			t.Fatal("Expected error for cardio without type")
		}
		if err := (Entry{Type: TypeCardio, CardioType: CardioRunning}).Validate(); err != nil {
			t.Errorf("Expected valid cardio entry, got %v", err)
		}
	})

	t.Run("RejectsUnknownEnums", func(t *testing.T) {
		bad := []Entry{
			{Type: "yoga"},
			{Type: TypeGym, Exercise: "x", Sets: "1", Reps: "1", BodyPart: "Neck"},
			{Type: TypeGym, Exercise: "x", Sets: "1", Reps: "1", Feeling: "meh"},
			{Type: TypeCardio, CardioType: "rowing"},
		}
		for _, e := range bad {
			if err := e.Validate(); !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("Expected rejection for %+v, got %v", e, err)
			}
		}
	})

	t.Run("ValidateEnumsToleratesMissing", func(t *testing.T) {
		if err := (Entry{Exercise: "legacy"}).ValidateEnums(); err != nil {
			t.Errorf("Expected no error for absent enums, got %v", err)
		}
	})
}

func TestSortProfiles(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	profiles := []Profile{
		{ID: "c", CreatedAt: base.Add(time.Hour)},
		{ID: "b", CreatedAt: base},
		{ID: "a", CreatedAt: base},
	}
	SortProfiles(profiles)
	got := profiles[0].ID + profiles[1].ID + profiles[2].ID
	if got != "abc" {
		t.Errorf("Expected order abc, got %s", got)
	}
}

func TestSnapshotNormalizedAndClone(t *testing.T) {
	snap := Snapshot{Profiles: []Profile{{ID: "p1"}, {ID: "p2"}}}
	snap = snap.Normalized()
	if snap.Current() != "p1" {
		t.Errorf("Expected current p1, got %q", snap.Current())
	}
	if snap.ProfileWorkouts == nil || snap.ProfileTemplates == nil {
		t.Fatal("Expected maps to be initialized")
	}

	snap.ProfileWorkouts["p1"] = []Workout{{ID: "w1"}}
	snap.ProfileTemplates["p1"] = []Template{{ID: "t1", Exercises: []Entry{{Exercise: "a"}}}}
	clone := snap.Clone()
	clone.ProfileWorkouts["p1"][0].ID = "changed"
	clone.ProfileTemplates["p1"][0].Exercises[0].Exercise = "changed"
	clone.SetCurrent("p2")

	if snap.ProfileWorkouts["p1"][0].ID != "w1" {
		t.Error("Expected clone workouts to be independent")
	}
	if snap.ProfileTemplates["p1"][0].Exercises[0].Exercise != "a" {
		t.Error("Expected clone template entries to be independent")
	}
	if snap.Current() != "p1" {
		t.Error("Expected clone current id to be independent")
	}
}

func TestNewIDPrefixAndUniqueness(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID("w-")
		if !strings.HasPrefix(id, "w-") {
			t.Fatalf("Expected w- prefix, got %s", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNewWorkoutStampsDateAndTimeOfDay(t *testing.T) {
	now := time.Date(2024, 3, 3, 19, 0, 0, 0, time.Local)
	w := NewWorkout(Entry{Type: TypeCardio, CardioType: CardioRunning}, now)
	if !w.Date.Equal(now) || w.TimeOfDay != Evening {
		t.Errorf("Expected date %v evening, got %v %s", now, w.Date, w.TimeOfDay)
	}
	if !w.IsCardio() || w.IsGym() {
		t.Error("Expected cardio workout")
	}
}
