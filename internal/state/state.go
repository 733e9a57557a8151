// Package state holds the in-memory application state shared by the HTTP services and the
// sync orchestrator. Every read returns a copy and every mutation happens under one lock,
// so subscription callbacks on backend goroutines and request handlers never race.
package state

import (
	"sync"

	"alcyxob/fitness-tracker/internal/domain"
)

// ChangeListener is called after each mutation with the new version.
type ChangeListener func(version uint64)

// State wraps a Snapshot plus the sticky sync-failure flag.
type State struct {
	mu         sync.RWMutex
	snap       domain.Snapshot
	syncFailed bool
	version    uint64
	listeners  []ChangeListener
}

// New creates a state holding snap.
func New(snap domain.Snapshot) *State {
	return &State{snap: snap.Normalized().Clone()}
}

// OnChange registers a listener for every later mutation.
func (s *State) OnChange(l ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// mutate runs fn under the write lock and then notifies listeners outside it.
func (s *State) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	version := s.version
	listeners := append([]ChangeListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(version)
	}
}

// Version increases with every mutation.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the whole data set.
func (s *State) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Replace swaps in a new data set.
func (s *State) Replace(snap domain.Snapshot) {
	snap = snap.Normalized().Clone()
	s.mutate(func() { s.snap = snap })
}

// Clear empties the data set and resets the sync-failure flag.
func (s *State) Clear() {
	s.mutate(func() {
		s.snap = domain.Snapshot{}.Normalized()
		s.syncFailed = false
	})
}

// --- Profiles ---

// Profiles returns the profile list in display order.
func (s *State) Profiles() []domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Profile{}, s.snap.Profiles...)
}

// Profile looks a profile up by id.
func (s *State) Profile(id string) (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.snap.ProfileIndex(id); i >= 0 {
		return s.snap.Profiles[i], true
	}
	return domain.Profile{}, false
}

// CurrentProfileID returns the selected profile id, or "".
func (s *State) CurrentProfileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Current()
}

// SetCurrentProfile selects a known profile. It reports false for unknown ids.
func (s *State) SetCurrentProfile(id string) bool {
	if _, ok := s.Profile(id); !ok {
		return false
	}
	s.mutate(func() { s.snap.SetCurrent(id) })
	return true
}

// AddProfile appends a profile with empty collections. The first profile becomes current.
func (s *State) AddProfile(p domain.Profile) {
	s.mutate(func() {
		s.snap.Profiles = append(s.snap.Profiles, p)
		if _, ok := s.snap.ProfileWorkouts[p.ID]; !ok {
			s.snap.ProfileWorkouts[p.ID] = []domain.Workout{}
		}
		if _, ok := s.snap.ProfileTemplates[p.ID]; !ok {
			s.snap.ProfileTemplates[p.ID] = []domain.Template{}
		}
		if s.snap.Current() == "" {
			s.snap.SetCurrent(p.ID)
		}
	})
}

// RemoveProfile deletes a profile with its workouts and templates. If it was current, the
// first remaining profile becomes current.
func (s *State) RemoveProfile(id string) bool {
	if _, ok := s.Profile(id); !ok {
		return false
	}
	s.mutate(func() {
		if i := s.snap.ProfileIndex(id); i >= 0 {
			s.snap.Profiles = append(s.snap.Profiles[:i:i], s.snap.Profiles[i+1:]...)
		}
		delete(s.snap.ProfileWorkouts, id)
		delete(s.snap.ProfileTemplates, id)
		s.fixCurrent()
	})
	return true
}

// SetProfiles replaces the profile list as delivered by a remote subscription. Collections
// of profiles no longer present are dropped and the selection is repaired.
func (s *State) SetProfiles(profiles []domain.Profile) {
	profiles = append([]domain.Profile{}, profiles...)
	s.mutate(func() {
		s.snap.Profiles = profiles
		keep := make(map[string]bool, len(profiles))
		for _, p := range profiles {
			keep[p.ID] = true
		}
		for pid := range s.snap.ProfileWorkouts {
			if !keep[pid] {
				delete(s.snap.ProfileWorkouts, pid)
			}
		}
		for pid := range s.snap.ProfileTemplates {
			if !keep[pid] {
				delete(s.snap.ProfileTemplates, pid)
			}
		}
		s.fixCurrent()
	})
}

// fixCurrent must be called with the lock held.
func (s *State) fixCurrent() {
	if s.snap.ProfileIndex(s.snap.Current()) >= 0 {
		return
	}
	if len(s.snap.Profiles) > 0 {
		s.snap.SetCurrent(s.snap.Profiles[0].ID)
		return
	}
	s.snap.SetCurrent("")
}

// --- Workouts ---

// Workouts returns a profile's workouts, newest first.
func (s *State) Workouts(profileID string) []domain.Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Workout{}, s.snap.ProfileWorkouts[profileID]...)
}

// SetWorkouts replaces a profile's workout list.
func (s *State) SetWorkouts(profileID string, workouts []domain.Workout) {
	workouts = append([]domain.Workout{}, workouts...)
	s.mutate(func() { s.snap.ProfileWorkouts[profileID] = workouts })
}

// PrependWorkout adds a workout at the head of a profile's list.
func (s *State) PrependWorkout(profileID string, w domain.Workout) {
	s.mutate(func() {
		s.snap.ProfileWorkouts[profileID] = append([]domain.Workout{w}, s.snap.ProfileWorkouts[profileID]...)
	})
}

// ReplaceWorkout swaps a workout in place, matched by id.
func (s *State) ReplaceWorkout(profileID string, w domain.Workout) bool {
	found := false
	s.mutate(func() {
		list := s.snap.ProfileWorkouts[profileID]
		for i := range list {
			if list[i].ID == w.ID {
				list[i] = w
				found = true
				return
			}
		}
	})
	return found
}

// RemoveWorkout deletes a workout by id.
func (s *State) RemoveWorkout(profileID, workoutID string) bool {
	found := false
	s.mutate(func() {
		list := s.snap.ProfileWorkouts[profileID]
		for i := range list {
			if list[i].ID == workoutID {
				s.snap.ProfileWorkouts[profileID] = append(list[:i:i], list[i+1:]...)
				found = true
				return
			}
		}
	})
	return found
}

// --- Templates ---

// Templates returns a profile's templates.
func (s *State) Templates(profileID string) []domain.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Template{}, s.snap.ProfileTemplates[profileID]...)
}

// SetTemplates replaces a profile's template list.
func (s *State) SetTemplates(profileID string, templates []domain.Template) {
	templates = append([]domain.Template{}, templates...)
	s.mutate(func() { s.snap.ProfileTemplates[profileID] = templates })
}

// AppendTemplate adds a template at the end of a profile's list.
func (s *State) AppendTemplate(profileID string, t domain.Template) {
	s.mutate(func() {
		s.snap.ProfileTemplates[profileID] = append(s.snap.ProfileTemplates[profileID], t)
	})
}

// RemoveTemplate deletes a template by id.
func (s *State) RemoveTemplate(profileID, templateID string) bool {
	found := false
	s.mutate(func() {
		list := s.snap.ProfileTemplates[profileID]
		for i := range list {
			if list[i].ID == templateID {
				s.snap.ProfileTemplates[profileID] = append(list[:i:i], list[i+1:]...)
				found = true
				return
			}
		}
	})
	return found
}

// --- Sync status ---

// SetSyncFailed sets the sticky sync-failure flag.
func (s *State) SetSyncFailed(failed bool) {
	s.mutate(func() { s.syncFailed = failed })
}

// SyncFailed reports whether a live subscription has failed since the last Clear.
func (s *State) SyncFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncFailed
}
