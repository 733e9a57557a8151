package repository

import (
	"context"
	"fmt"

	"alcyxob/fitness-tracker/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// OperationError wraps a backend failure with the operation and collection it hit.
type OperationError struct {
	Op         string
	Collection string
	Err        error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Collection names. Every profile, workout and template document carries an owner id;
// workouts and templates also carry the profile id they belong to.
const (
	ProfilesCollection  = "profiles"
	WorkoutsCollection  = "workouts"
	TemplatesCollection = "templates"
	UsersCollection     = "users"

	FieldID        = "id"
	FieldOwnerID   = "ownerId"
	FieldProfileID = "profileId"
	FieldEmail     = "email"
)

// Document is a stored record: its id plus a flat field map.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Predicate is an exact-match filter on one field. Multiple predicates are ANDed.
type Predicate struct {
	Field string
	Value interface{}
}

// Eq builds an exact-match predicate.
func Eq(field string, value interface{}) Predicate {
	return Predicate{Field: field, Value: value}
}

// ChangeHandler receives the full current matching set on every change, never a delta.
type ChangeHandler func(docs []Document)

// ErrorHandler is called once when a subscription fails; the subscription is over after that.
type ErrorHandler func(err error)

// Unsubscribe stops a live subscription. It does not wait for in-flight callbacks.
type Unsubscribe func()

// DocumentStore is the generic cloud document collaborator. Writes are full-document
// upserts (last write wins, no version check).
type DocumentStore interface {
	WriteDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error
	DeleteDocument(ctx context.Context, collection, id string) error
	QueryByFields(ctx context.Context, collection string, predicates ...Predicate) ([]Document, error)
	Subscribe(ctx context.Context, collection string, predicates []Predicate, onChange ChangeHandler, onError ErrorHandler) (Unsubscribe, error)
}

// AccountRepository stores cloud sign-in accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}
