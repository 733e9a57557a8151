package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
	"alcyxob/fitness-tracker/internal/identity"
	"alcyxob/fitness-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler covers accounts and the sign-in session.
type AuthHandler struct {
	accountService service.AccountService
	session        *identity.Session
	trackerService service.TrackerService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accountService service.AccountService, session *identity.Session, trackerService service.TrackerService) *AuthHandler {
	return &AuthHandler{accountService: accountService, session: session, trackerService: trackerService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// AccountResponse excludes the password hash.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
}

type SignInRequest struct {
	Token string `json:"token" binding:"required"`
}

type SessionResponse struct {
	State string         `json:"state"`
	User  *identity.User `json:"user,omitempty"`
}

// --- Handler Methods ---

// Register creates an account. POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during registration")
		}
		return
	}
	c.JSON(http.StatusCreated, mapAccountToResponse(account))
}

// Login checks credentials and returns an ID token for sign-in. POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, account, err := h.accountService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, Account: mapAccountToResponse(account)})
}

// SignIn starts a cloud session from an ID token. POST /api/v1/session/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.session.SignIn(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredential) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Sign-in failed")
		}
		return
	}
	c.JSON(http.StatusOK, SessionResponse{State: h.session.State().String(), User: &user})
}

// SignOut ends the cloud session and returns to local data. POST /api/v1/session/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.session.SignOut()
	c.JSON(http.StatusOK, SessionResponse{State: h.session.State().String()})
}

// Status reports the session and sync state. GET /api/v1/session
func (h *AuthHandler) Status(c *gin.Context) {
	resp := gin.H{
		"state": h.session.State().String(),
		"sync":  h.trackerService.SyncStatus(),
	}
	if user, ok := h.session.CurrentUser(); ok {
		resp["user"] = user
		// Tokens from another issuer have no local account.
		account, err := h.accountService.GetAccount(c.Request.Context(), user.ID)
		if err == nil {
			resp["account"] = mapAccountToResponse(account)
		} else if !errors.Is(err, service.ErrAccountNotFound) {
			log.Printf("WARN: Session status without account for user %s: %v", user.ID, err)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func mapAccountToResponse(account *domain.Account) AccountResponse {
	if account == nil {
		return AccountResponse{}
	}
	return AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
}
