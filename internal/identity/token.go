package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// --- Error Definitions ---
var (
	ErrInvalidCredential = errors.New("invalid or expired credential")
	ErrTokenGeneration   = errors.New("failed to generate identity token")
)

const tokenIssuer = "fitness-tracker"

// User is the identity a successful sign-in yields.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Provider turns an opaque credential into a User.
type Provider interface {
	Authenticate(ctx context.Context, credential string) (User, error)
}

// idClaims defines the structure of the ID token payload.
type idClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 ID tokens. It is the Provider used by the
// session: the account service issues a token on login and SignIn verifies it.
type TokenService struct {
	secret     []byte
	expiration time.Duration
}

// NewTokenService creates a token service. An empty secret is a configuration error.
func NewTokenService(secret string, expiration time.Duration) *TokenService {
	if secret == "" {
		panic("JWT secret cannot be empty")
	}
	if expiration <= 0 {
		expiration = time.Hour
	}
	return &TokenService{secret: []byte(secret), expiration: expiration}
}

// Issue signs an ID token for user.
func (s *TokenService) Issue(user User) (string, error) {
	now := time.Now()
	claims := &idClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signed, nil
}

// Verify parses and validates an ID token.
func (s *TokenService) Verify(tokenString string) (User, error) {
	claims := &idClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return User{}, ErrInvalidCredential
	}
	if claims.UserID == "" {
		return User{}, ErrInvalidCredential
	}
	return User{ID: claims.UserID, Email: claims.Email}, nil
}

// Authenticate implements Provider.
func (s *TokenService) Authenticate(ctx context.Context, credential string) (User, error) {
	return s.Verify(credential)
}
