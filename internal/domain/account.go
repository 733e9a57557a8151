package domain

import (
	"time"
)

// Account is a cloud sign-in identity. Accounts own remote profiles through OwnerID.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`        // Unique
	PasswordHash string    `json:"passwordHash"` // Never returned by the API
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
