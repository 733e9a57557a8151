package domain

// Snapshot is the whole application data set. Its JSON form is both the local
// storage slot and the export artifact.
type Snapshot struct {
	Profiles         []Profile             `json:"profiles"`
	CurrentProfileID *string               `json:"currentProfileId"`
	ProfileWorkouts  map[string][]Workout  `json:"profileWorkouts"`
	ProfileTemplates map[string][]Template `json:"profileTemplates"`
}

// Current returns the current profile id, or "" when none is selected.
func (s *Snapshot) Current() string {
	if s.CurrentProfileID == nil {
		return ""
	}
	return *s.CurrentProfileID
}

// SetCurrent selects a profile; "" clears the selection.
func (s *Snapshot) SetCurrent(id string) {
	if id == "" {
		s.CurrentProfileID = nil
		return
	}
	s.CurrentProfileID = &id
}

// Normalized fills nil collections and falls back to the first profile when the
// current id is missing.
func (s Snapshot) Normalized() Snapshot {
	if s.Profiles == nil {
		s.Profiles = []Profile{}
	}
	if s.ProfileWorkouts == nil {
		s.ProfileWorkouts = map[string][]Workout{}
	}
	if s.ProfileTemplates == nil {
		s.ProfileTemplates = map[string][]Template{}
	}
	if s.Current() == "" && len(s.Profiles) > 0 {
		s.SetCurrent(s.Profiles[0].ID)
	}
	return s
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Profiles:         append([]Profile{}, s.Profiles...),
		ProfileWorkouts:  make(map[string][]Workout, len(s.ProfileWorkouts)),
		ProfileTemplates: make(map[string][]Template, len(s.ProfileTemplates)),
	}
	out.SetCurrent(s.Current())
	for pid, ws := range s.ProfileWorkouts {
		out.ProfileWorkouts[pid] = append([]Workout{}, ws...)
	}
	for pid, ts := range s.ProfileTemplates {
		cp := make([]Template, len(ts))
		for i, t := range ts {
			t.Exercises = append([]Entry{}, t.Exercises...)
			cp[i] = t
		}
		out.ProfileTemplates[pid] = cp
	}
	return out
}

// ProfileIndex returns the position of a profile, or -1.
func (s *Snapshot) ProfileIndex(id string) int {
	for i, p := range s.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}
