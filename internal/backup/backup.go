// Package backup reads and writes the export artifact and folds an imported data set into
// the current one, either replacing it or merging by id.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"alcyxob/fitness-tracker/internal/domain"
)

// Filename is the fixed name of the export artifact.
const Filename = "fitnessTrackerBackup.json"

// ErrInvalidBackup is returned for documents that are not a usable backup.
var ErrInvalidBackup = errors.New("invalid backup file")

// Mode selects how an import is applied.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModeMerge   Mode = "merge"
)

// ParseMode accepts "replace" and "merge"; anything else is an error.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReplace, ModeMerge:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown import mode %q", s)
}

// Encode renders a snapshot as pretty-printed JSON with two-space indentation.
func Encode(snap domain.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap.Normalized(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// Decode parses a backup. The document must carry a non-null "profiles" field, and every
// workout and template entry must use known enum values. Missing collections decode empty.
func Decode(data []byte) (domain.Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	raw, ok := top["profiles"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return domain.Snapshot{}, fmt.Errorf("%w: missing profiles", ErrInvalidBackup)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	for pid, workouts := range snap.ProfileWorkouts {
		for _, w := range workouts {
			if err := w.ValidateEnums(); err != nil {
				return domain.Snapshot{}, fmt.Errorf("%w: workout %s of profile %s: %v", ErrInvalidBackup, w.ID, pid, err)
			}
		}
	}
	for pid, templates := range snap.ProfileTemplates {
		for _, t := range templates {
			for _, e := range t.Exercises {
				if err := e.ValidateEnums(); err != nil {
					return domain.Snapshot{}, fmt.Errorf("%w: template %s of profile %s: %v", ErrInvalidBackup, t.ID, pid, err)
				}
			}
		}
	}
	return snap.Normalized(), nil
}

// Apply folds incoming into current according to mode.
func Apply(mode Mode, current, incoming domain.Snapshot) domain.Snapshot {
	if mode == ModeReplace {
		return Replace(current, incoming)
	}
	return Merge(current, incoming)
}

// Replace discards the current data set in favor of incoming. A missing current id falls
// back to the first incoming profile.
func Replace(_ domain.Snapshot, incoming domain.Snapshot) domain.Snapshot {
	out := incoming.Clone()
	if out.ProfileIndex(out.Current()) < 0 {
		out.SetCurrent("")
	}
	return out.Normalized()
}

// Merge adds incoming profiles whose ids are new, and for every incoming profile key
// prepends the workouts and templates whose ids are not already present. Existing records
// are never overwritten, so merging the same backup twice changes nothing the second time.
// The current profile stays selected.
func Merge(current, incoming domain.Snapshot) domain.Snapshot {
	out := current.Normalized().Clone()
	in := incoming.Normalized()

	for _, p := range in.Profiles {
		if out.ProfileIndex(p.ID) < 0 {
			out.Profiles = append(out.Profiles, p)
		}
	}
	for pid, workouts := range in.ProfileWorkouts {
		out.ProfileWorkouts[pid] = prependNew(out.ProfileWorkouts[pid], workouts, func(w domain.Workout) string { return w.ID })
	}
	for pid, templates := range in.ProfileTemplates {
		out.ProfileTemplates[pid] = prependNew(out.ProfileTemplates[pid], templates, func(t domain.Template) string { return t.ID })
	}
	return out.Normalized()
}

// prependNew returns the incoming items whose ids are absent from existing, followed by existing.
func prependNew[T any](existing, incoming []T, id func(T) string) []T {
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[id(item)] = true
	}
	out := make([]T, 0, len(existing)+len(incoming))
	for _, item := range incoming {
		if !seen[id(item)] {
			seen[id(item)] = true
			out = append(out, item)
		}
	}
	return append(out, existing...)
}
