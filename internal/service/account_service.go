package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrAccountNotFound      = errors.New("account not found")
)

// AccountService registers cloud accounts and logs them in. A successful login yields the
// ID token that Session.SignIn consumes.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (token string, account *domain.Account, err error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
}

// accountService implements the AccountService interface.
type accountService struct {
	accounts repository.AccountRepository
	tokens   *identity.TokenService
}

// NewAccountService creates a new instance of accountService.
func NewAccountService(accounts repository.AccountRepository, tokens *identity.TokenService) AccountService {
	return &accountService{accounts: accounts, tokens: tokens}
}

// Register handles new account registration.
func (s *accountService) Register(ctx context.Context, name, email, password string) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email and password cannot be empty")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	log.Printf("INFO: Registered account %s", account.ID)

	account.PasswordHash = ""
	return account, nil
}

// Login checks the password and issues an ID token.
func (s *accountService) Login(ctx context.Context, email, password string) (token string, account *domain.Account, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		err = errors.New("email and password cannot be empty")
		return
	}

	account, err = s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		account = nil
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.tokens.Issue(identity.User{ID: account.ID, Email: account.Email})
	if err != nil {
		return "", nil, err
	}

	account.PasswordHash = ""
	return token, account, nil
}

// GetAccount returns the account behind a signed-in user, without its password hash.
func (s *accountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		log.Printf("ERROR: Failed to fetch account %s: %v", accountID, err)
		return nil, err
	}
	account.PasswordHash = ""
	return account, nil
}
