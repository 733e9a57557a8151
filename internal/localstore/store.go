// Package localstore persists the whole application snapshot into one key-value slot
// and migrates the legacy single-list format on first load.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/metrics"
)

const (
	// StorageKey holds the current snapshot shape.
	StorageKey = "fitnessTrackerStore"
	// LegacyKey held a bare array of workouts before profiles existed.
	LegacyKey = "fitnessTrackerWorkouts"
	// CorruptKey keeps the last snapshot that could not be decoded.
	CorruptKey = "fitnessTrackerStore.corrupt"
)

// LoadResult tells the caller how the snapshot came to be.
type LoadResult int

const (
	LoadExisting LoadResult = iota
	LoadMigrated
	LoadCreated
)

func (r LoadResult) String() string {
	switch r {
	case LoadMigrated:
		return "migrated"
	case LoadCreated:
		return "created"
	default:
		return "existing"
	}
}

// Store reads and writes the snapshot slot.
type Store struct {
	slot Slot
	now  func() time.Time
}

// NewStore creates a Store on top of a slot.
func NewStore(slot Slot) *Store {
	return &Store{slot: slot, now: time.Now}
}

// Load returns the stored snapshot. When the slot is empty it migrates legacy data into a
// synthesized "Default" profile, or synthesizes a starter profile when there is nothing
// at all. Both synthesized shapes are persisted before returning.
//
// Unreadable data never fails the load: a corrupt snapshot is copied to CorruptKey and a
// failed legacy migration leaves the legacy key alone. In both cases the starter profile is
// kept in memory only, so the slot is not overwritten by this call.
func (s *Store) Load() (domain.Snapshot, LoadResult, error) {
	raw, err := s.slot.Get(StorageKey)
	if err == nil {
		var snap domain.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			log.Printf("ERROR: Failed to decode stored snapshot, starting with an empty profile: %v", err)
			if err := s.slot.Set(CorruptKey, raw); err != nil {
				log.Printf("WARN: Failed to keep a copy of the unreadable snapshot: %v", err)
			}
			return s.starter(), LoadCreated, nil
		}
		return snap.Normalized(), LoadExisting, nil
	}
	if !errors.Is(err, ErrSlotEmpty) {
		return domain.Snapshot{}, LoadExisting, err
	}

	legacy, err := s.slot.Get(LegacyKey)
	if err != nil && !errors.Is(err, ErrSlotEmpty) {
		return domain.Snapshot{}, LoadExisting, err
	}
	if err == nil {
		snap, err := s.migrateLegacy(legacy)
		if err != nil {
			log.Printf("WARN: Failed to migrate legacy data, will retry on next start: %v", err)
			return s.starter(), LoadCreated, nil
		}
		log.Printf("INFO: Migrated %d legacy workouts into profile %s", len(snap.ProfileWorkouts[snap.Current()]), snap.Current())
		return snap, LoadMigrated, nil
	}

	snap := s.starter()
	_ = s.Save(snap)
	return snap, LoadCreated, nil
}

func (s *Store) starter() domain.Snapshot {
	starter := domain.NewProfile("You", "", "", s.now())
	snap := domain.Snapshot{
		Profiles:         []domain.Profile{starter},
		ProfileWorkouts:  map[string][]domain.Workout{starter.ID: {}},
		ProfileTemplates: map[string][]domain.Template{starter.ID: {}},
	}
	snap.SetCurrent(starter.ID)
	return snap
}

func (s *Store) migrateLegacy(raw string) (domain.Snapshot, error) {
	var workouts []domain.Workout
	if err := json.Unmarshal([]byte(raw), &workouts); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to decode legacy workouts: %w", err)
	}
	base := s.now().UnixMilli()
	for i := range workouts {
		if workouts[i].ID == "" {
			workouts[i].ID = strconv.FormatInt(base+int64(i), 10)
		}
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}

	profile := domain.NewProfile("Default", "", "", s.now())
	snap := domain.Snapshot{
		Profiles:         []domain.Profile{profile},
		ProfileWorkouts:  map[string][]domain.Workout{profile.ID: workouts},
		ProfileTemplates: map[string][]domain.Template{},
	}
	snap.SetCurrent(profile.ID)

	if err := s.Save(snap); err != nil {
		// Keep the legacy key so the next start can try again.
		return snap, nil
	}
	if err := s.slot.Delete(LegacyKey); err != nil {
		log.Printf("WARN: Failed to remove legacy slot after migration: %v", err)
	}
	return snap, nil
}

// Save overwrites the slot with the full snapshot. Failures are logged and returned, but
// callers treat them as a no-op: the in-memory state stays authoritative for the session.
func (s *Store) Save(snap domain.Snapshot) error {
	payload, err := json.Marshal(snap.Normalized())
	if err != nil {
		log.Printf("ERROR: Failed to encode snapshot for local storage: %v", err)
		metrics.LocalWritesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return err
	}
	if err := s.slot.Set(StorageKey, string(payload)); err != nil {
		log.Printf("ERROR: Failed to save local storage: %v", err)
		metrics.LocalWritesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return err
	}
	metrics.LocalWritesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return nil
}
