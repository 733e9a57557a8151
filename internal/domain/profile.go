package domain

import (
	"sort"
	"time"
)

// Defaults used for synthesized and quick-created profiles.
const (
	DefaultProfileColor = "#7c3aed"
	DefaultProfileEmoji = "💪"
)

// Profile is a named persona owning its own workouts and templates.
// OwnerID is only set on copies stored remotely.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
	OwnerID   string    `json:"ownerId,omitempty"`
}

// NewProfile creates a profile with a fresh id, falling back to the default color and emoji.
func NewProfile(name, color, emoji string, now time.Time) Profile {
	if color == "" {
		color = DefaultProfileColor
	}
	if emoji == "" {
		emoji = DefaultProfileEmoji
	}
	return Profile{
		ID:        NewID("profile-"),
		Name:      name,
		Color:     color,
		Emoji:     emoji,
		CreatedAt: now,
	}
}

// SortProfiles orders profiles by creation time, then id, so the "first" profile is stable
// no matter what order a store returns them in.
func SortProfiles(profiles []Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		if !profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
		}
		return profiles[i].ID < profiles[j].ID
	})
}
