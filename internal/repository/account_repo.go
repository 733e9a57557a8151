package repository

import (
	"context"
	"errors"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
)

// ErrAccountExists is returned when an email is already registered.
var ErrAccountExists = errors.New("account with this email already exists")

// documentAccountRepository implements AccountRepository on any DocumentStore.
type documentAccountRepository struct {
	docs DocumentStore
}

// NewAccountRepository creates an account repository backed by the "users" collection.
func NewAccountRepository(docs DocumentStore) AccountRepository {
	return &documentAccountRepository{docs: docs}
}

// Create stores a new account. Email uniqueness is checked before the write; a racing
// registration of the same email can still slip through, the document store has no
// unique constraint to stop it.
func (r *documentAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.Email == "" || account.PasswordHash == "" {
		return errors.New("account email and password hash are required")
	}
	if _, err := r.GetByEmail(ctx, account.Email); err == nil {
		return ErrAccountExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	account.ID = domain.NewID("user-")
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	fields, err := ToFields(account)
	if err != nil {
		return err
	}
	return r.docs.WriteDocument(ctx, UsersCollection, account.ID, fields)
}

// GetByEmail retrieves an account by its email address.
func (r *documentAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	docs, err := r.docs.QueryByFields(ctx, UsersCollection, Eq(FieldEmail, email))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var account domain.Account
	if err := DecodeDocument(docs[0], &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by id.
func (r *documentAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	docs, err := r.docs.QueryByFields(ctx, UsersCollection, Eq(FieldID, id))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	var account domain.Account
	if err := DecodeDocument(docs[0], &account); err != nil {
		return nil, err
	}
	return &account, nil
}
