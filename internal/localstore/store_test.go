package localstore

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
)

func setupStoreTest(t *testing.T) (*Store, *SQLiteSlot) {
	slot, err := OpenSQLiteSlot(t.TempDir() + "/local.db")
	if err != nil {
		t.Fatalf("Failed to open slot: %v", err)
	}
	t.Cleanup(func() { slot.Close() })
	return NewStore(slot), slot
}

// failingSlot accepts reads but refuses writes, like a full quota.
type failingSlot struct {
	values map[string]string
}

func (f *failingSlot) Get(key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", ErrSlotEmpty
	}
	return v, nil
}

func (f *failingSlot) Set(string, string) error { return errors.New("quota exceeded") }
func (f *failingSlot) Delete(string) error      { return errors.New("quota exceeded") }

func TestSQLiteSlot(t *testing.T) {
	_, slot := setupStoreTest(t)

	if _, err := slot.Get("missing"); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("Expected ErrSlotEmpty, got %v", err)
	}
	if err := slot.Set("k", "v1"); err != nil {
		t.Fatalf("Failed to set: %v", err)
	}
	if err := slot.Set("k", "v2"); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	if v, err := slot.Get("k"); err != nil || v != "v2" {
		t.Errorf("Expected v2, got %q (%v)", v, err)
	}
	if err := slot.Delete("k"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := slot.Get("k"); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("Expected slot to be empty after delete, got %v", err)
	}
}

func TestLoadCreatesStarterProfile(t *testing.T) {
	store, slot := setupStoreTest(t)

	snap, result, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if result != LoadCreated {
		t.Errorf("Expected LoadCreated, got %s", result)
	}
	if len(snap.Profiles) != 1 || snap.Profiles[0].Name != "You" {
		t.Fatalf("Expected one starter profile 'You', got %+v", snap.Profiles)
	}
	pid := snap.Profiles[0].ID
	if snap.Current() != pid {
		t.Errorf("Expected current profile %s, got %s", pid, snap.Current())
	}
	if ws, ok := snap.ProfileWorkouts[pid]; !ok || len(ws) != 0 {
		t.Errorf("Expected empty workout list for starter profile, got %v", ws)
	}
	if _, err := slot.Get(StorageKey); err != nil {
		t.Errorf("Expected starter snapshot to be persisted, got %v", err)
	}

	again, result, err := store.Load()
	if err != nil || result != LoadExisting {
		t.Fatalf("Expected existing load, got %s (%v)", result, err)
	}
	if again.Profiles[0].ID != pid {
		t.Errorf("Expected same starter profile on reload, got %s", again.Profiles[0].ID)
	}
}

func TestLoadMigratesLegacyList(t *testing.T) {
	store, slot := setupStoreTest(t)

	legacy := `[
		{"id":"old-1","type":"gym","exercise":"Bench","weight":"60","sets":"3","reps":"10","date":"2023-01-02T10:00:00Z"},
		{"type":"cardio","cardioType":"running","distance":"5","time":"30","date":"2023-01-01T18:00:00Z"}
	]`
	if err := slot.Set(LegacyKey, legacy); err != nil {
		t.Fatalf("Failed to seed legacy data: %v", err)
	}

	snap, result, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if result != LoadMigrated {
		t.Errorf("Expected LoadMigrated, got %s", result)
	}
	if len(snap.Profiles) != 1 || snap.Profiles[0].Name != "Default" {
		t.Fatalf("Expected exactly one Default profile, got %+v", snap.Profiles)
	}
	ws := snap.ProfileWorkouts[snap.Profiles[0].ID]
	if len(ws) != 2 {
		t.Fatalf("Expected 2 migrated workouts, got %d", len(ws))
	}
	if ws[0].ID != "old-1" || ws[1].ID == "" {
		t.Errorf("Expected ids kept or synthesized, got %q and %q", ws[0].ID, ws[1].ID)
	}

	if _, err := slot.Get(LegacyKey); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("Expected legacy key to be removed, got %v", err)
	}

	again, result, err := store.Load()
	if err != nil || result != LoadExisting {
		t.Fatalf("Expected existing load after migration, got %s (%v)", result, err)
	}
	if len(again.Profiles) != 1 || len(again.ProfileWorkouts[again.Profiles[0].ID]) != 2 {
		t.Errorf("Expected migrated data on reload, got %+v", again)
	}
}

func TestLoadMigratesNumericLegacyFields(t *testing.T) {
	store, slot := setupStoreTest(t)

	legacy := `[
		{"id":"old-1","type":"gym","exercise":"Squat","weight":100,"sets":3,"reps":5.5,"date":"2023-01-02T10:00:00Z"},
		{"id":"old-2","type":"cardio","cardioType":"running","distance":null,"time":"30","date":"2023-01-01T18:00:00Z"}
	]`
	if err := slot.Set(LegacyKey, legacy); err != nil {
		t.Fatalf("Failed to seed legacy data: %v", err)
	}

	snap, result, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if result != LoadMigrated {
		t.Fatalf("Expected LoadMigrated, got %s", result)
	}
	ws := snap.ProfileWorkouts[snap.Current()]
	if len(ws) != 2 {
		t.Fatalf("Expected 2 migrated workouts, got %d", len(ws))
	}
	if ws[0].Weight != "100" || ws[0].Sets != "3" || ws[0].Reps != "5.5" {
		t.Errorf("Expected numbers kept as text, got weight=%q sets=%q reps=%q", ws[0].Weight, ws[0].Sets, ws[0].Reps)
	}
	if ws[1].Distance != "" {
		t.Errorf("Expected null distance to decode as empty, got %q", ws[1].Distance)
	}
	if _, err := slot.Get(LegacyKey); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("Expected legacy key to be removed, got %v", err)
	}
}

func TestLoadRetriesFailedLegacyMigration(t *testing.T) {
	store, slot := setupStoreTest(t)

	if err := slot.Set(LegacyKey, `{"not":"a list"}`); err != nil {
		t.Fatalf("Failed to seed legacy data: %v", err)
	}

	snap, result, err := store.Load()
	if err != nil {
		t.Fatalf("Expected load to degrade without error, got %v", err)
	}
	if result != LoadCreated || len(snap.Profiles) != 1 {
		t.Errorf("Expected in-memory starter profile, got %s %+v", result, snap.Profiles)
	}
	if _, err := slot.Get(StorageKey); !errors.Is(err, ErrSlotEmpty) {
		t.Errorf("Expected nothing saved over the slot, got %v", err)
	}

	// Repaired legacy data is picked up on the next start.
	if err := slot.Set(LegacyKey, `[{"id":"old-1","type":"gym","exercise":"Bench","sets":"3","reps":"10","date":"2023-01-02T10:00:00Z"}]`); err != nil {
		t.Fatalf("Failed to reseed legacy data: %v", err)
	}
	snap, result, err = store.Load()
	if err != nil || result != LoadMigrated {
		t.Fatalf("Expected migration on retry, got %s (%v)", result, err)
	}
	if len(snap.ProfileWorkouts[snap.Current()]) != 1 {
		t.Errorf("Expected 1 migrated workout, got %+v", snap.ProfileWorkouts)
	}
}

func TestLoadDegradesOnCorruptSnapshot(t *testing.T) {
	store, slot := setupStoreTest(t)

	if err := slot.Set(StorageKey, `{"profiles":[{"id":"p1"`); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	snap, result, err := store.Load()
	if err != nil {
		t.Fatalf("Expected load to degrade without error, got %v", err)
	}
	if result != LoadCreated || len(snap.Profiles) != 1 {
		t.Errorf("Expected in-memory starter profile, got %s %+v", result, snap.Profiles)
	}
	if raw, err := slot.Get(CorruptKey); err != nil || raw != `{"profiles":[{"id":"p1"` {
		t.Errorf("Expected unreadable snapshot to be kept, got %q (%v)", raw, err)
	}
}

func TestLoadFallsBackToFirstProfile(t *testing.T) {
	store, slot := setupStoreTest(t)
	raw, _ := json.Marshal(map[string]interface{}{
		"profiles": []domain.Profile{{ID: "p1", Name: "A"}, {ID: "p2", Name: "B"}},
	})
	if err := slot.Set(StorageKey, string(raw)); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	snap, _, err := store.Load()
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if snap.Current() != "p1" {
		t.Errorf("Expected current p1, got %q", snap.Current())
	}
	if snap.ProfileWorkouts == nil {
		t.Error("Expected workouts map to be initialized")
	}
}

func TestSaveOverwritesAndDegradesSilently(t *testing.T) {
	store, slot := setupStoreTest(t)
	p := domain.NewProfile("Sam", "", "", time.Now())
	snap := domain.Snapshot{Profiles: []domain.Profile{p}}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	raw, err := slot.Get(StorageKey)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	var decoded domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("Failed to decode saved snapshot: %v", err)
	}
	if len(decoded.Profiles) != 1 || decoded.Profiles[0].Name != "Sam" {
		t.Errorf("Expected saved profile Sam, got %+v", decoded.Profiles)
	}

	broken := NewStore(&failingSlot{values: map[string]string{}})
	if err := broken.Save(snap); err == nil {
		t.Error("Expected save error to be reported")
	}
	loaded, result, err := broken.Load()
	if err != nil {
		t.Fatalf("Expected load to succeed in memory despite write failure, got %v", err)
	}
	if result != LoadCreated || len(loaded.Profiles) != 1 {
		t.Errorf("Expected in-memory starter profile, got %s %+v", result, loaded.Profiles)
	}
}
