package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntry is wrapped by every entry validation failure.
var ErrInvalidEntry = errors.New("invalid workout entry")

// Normalize trims free-text fields and fills the defaults the log form starts with.
func (e Entry) Normalize() Entry {
	e.Exercise = strings.TrimSpace(e.Exercise)
	e.Sets = FlexString(strings.TrimSpace(string(e.Sets)))
	e.Reps = FlexString(strings.TrimSpace(string(e.Reps)))
	e.Weight = FlexString(strings.TrimSpace(string(e.Weight)))
	e.Duration = FlexString(strings.TrimSpace(string(e.Duration)))
	e.Distance = FlexString(strings.TrimSpace(string(e.Distance)))
	e.Time = FlexString(strings.TrimSpace(string(e.Time)))
	if e.Feeling == "" {
		e.Feeling = FeelingGood
	}
	if e.Type == TypeGym && e.BodyPart == "" {
		e.BodyPart = BodyPartChest
	}
	return e
}

// Validate checks the required fields of a submitted entry.
// Gym entries need an exercise name, sets and reps; cardio entries need a cardio type.
func (e Entry) Validate() error {
	if err := e.ValidateEnums(); err != nil {
		return err
	}
	switch e.Type {
	case TypeGym:
		if e.Exercise == "" {
			return fmt.Errorf("%w: exercise name is required", ErrInvalidEntry)
		}
		if e.Sets == "" {
			return fmt.Errorf("%w: sets is required", ErrInvalidEntry)
		}
		if e.Reps == "" {
			return fmt.Errorf("%w: reps is required", ErrInvalidEntry)
		}
	case TypeCardio:
		if e.CardioType == "" {
			return fmt.Errorf("%w: cardio type is required", ErrInvalidEntry)
		}
	default:
		return fmt.Errorf("%w: type must be gym or cardio", ErrInvalidEntry)
	}
	return nil
}

// ValidateEnums rejects unrecognized enum values but tolerates absent ones.
// Imported records use this: old exports may lack fields, they must not carry garbage.
func (e Entry) ValidateEnums() error {
	if e.Type != "" && !e.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, e.Type)
	}
	if e.BodyPart != "" && !e.BodyPart.Valid() {
		return fmt.Errorf("%w: unknown body part %q", ErrInvalidEntry, e.BodyPart)
	}
	if e.Feeling != "" && !e.Feeling.Valid() {
		return fmt.Errorf("%w: unknown feeling %q", ErrInvalidEntry, e.Feeling)
	}
	if e.CardioType != "" && !e.CardioType.Valid() {
		return fmt.Errorf("%w: unknown cardio type %q", ErrInvalidEntry, e.CardioType)
	}
	return nil
}
