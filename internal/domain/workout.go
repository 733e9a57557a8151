package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// WorkoutType discriminates gym sessions from cardio sessions.
type WorkoutType string

const (
	TypeGym    WorkoutType = "gym"
	TypeCardio WorkoutType = "cardio"
)

// BodyPart is the muscle group a gym entry trains.
type BodyPart string

const (
	BodyPartChest     BodyPart = "Chest"
	BodyPartBack      BodyPart = "Back"
	BodyPartShoulders BodyPart = "Shoulders"
	BodyPartArms      BodyPart = "Arms"
	BodyPartLegs      BodyPart = "Legs"
	BodyPartCore      BodyPart = "Core"
	BodyPartFullBody  BodyPart = "Full Body"
)

// BodyParts lists every body part in declaration order. Order matters for suggestions.
var BodyParts = []BodyPart{
	BodyPartChest, BodyPartBack, BodyPartShoulders, BodyPartArms,
	BodyPartLegs, BodyPartCore, BodyPartFullBody,
}

// Feeling is how the user felt during the session.
type Feeling string

const (
	FeelingExcellent Feeling = "excellent"
	FeelingGood      Feeling = "good"
	FeelingOkay      Feeling = "okay"
	FeelingTired     Feeling = "tired"
)

// CardioType is the kind of cardio activity.
type CardioType string

const (
	CardioRunning  CardioType = "running"
	CardioCycling  CardioType = "cycling"
	CardioSwimming CardioType = "swimming"
	CardioWalking  CardioType = "walking"
	CardioOther    CardioType = "other"
)

// TimeOfDay is derived once, when the workout is created.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

func (t WorkoutType) Valid() bool {
	return t == TypeGym || t == TypeCardio
}

func (b BodyPart) Valid() bool {
	for _, known := range BodyParts {
		if b == known {
			return true
		}
	}
	return false
}

func (f Feeling) Valid() bool {
	switch f {
	case FeelingExcellent, FeelingGood, FeelingOkay, FeelingTired:
		return true
	}
	return false
}

func (c CardioType) Valid() bool {
	switch c {
	case CardioRunning, CardioCycling, CardioSwimming, CardioWalking, CardioOther:
		return true
	}
	return false
}

// TimeOfDayAt buckets a clock time: before noon is morning, before 18h afternoon, else evening.
func TimeOfDayAt(t time.Time) TimeOfDay {
	h := t.Hour()
	if h < 12 {
		return Morning
	}
	if h < 18 {
		return Afternoon
	}
	return Evening
}

// FlexString is free text that older data may hold as a JSON number ("sets": 3).
// Numbers keep their literal spelling; null decodes to "".
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected text or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Entry is the form shape of a workout: everything the user types in.
// Numeric fields are kept as free text ("3 sets" is a valid Sets value);
// the records engine extracts numbers when it needs them.
type Entry struct {
	Type       WorkoutType `json:"type"`
	Exercise   string      `json:"exercise,omitempty"`
	BodyPart   BodyPart    `json:"bodyPart,omitempty"`
	Sets       FlexString  `json:"sets,omitempty"`
	Reps       FlexString  `json:"reps,omitempty"`
	Weight     FlexString  `json:"weight,omitempty"`
	Duration   FlexString  `json:"duration,omitempty"`
	CardioType CardioType  `json:"cardioType,omitempty"`
	Distance   FlexString  `json:"distance,omitempty"`
	Time       FlexString  `json:"time,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	Feeling    Feeling     `json:"feeling,omitempty"`
}

// Workout is one logged gym or cardio session belonging to a profile.
// ID, Date and TimeOfDay never change after creation.
type Workout struct {
	ID string `json:"id"`
	Entry
	Date      time.Time `json:"date"`
	TimeOfDay TimeOfDay `json:"timeOfDay,omitempty"`
}

// NewWorkout stamps an entry with a fresh id, the creation time and its time-of-day tag.
func NewWorkout(entry Entry, now time.Time) Workout {
	return Workout{
		ID:        NewID("w-"),
		Entry:     entry,
		Date:      now,
		TimeOfDay: TimeOfDayAt(now),
	}
}

func (w *Workout) IsGym() bool {
	return w.Type == TypeGym
}

func (w *Workout) IsCardio() bool {
	return w.Type == TypeCardio
}
