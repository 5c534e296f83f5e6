package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusfeed/backend/internal/models"
	"github.com/campusfeed/backend/internal/respond"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
}

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// Compared against when the email is unknown so both login failures cost
// one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.DefaultCost)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users   UserStore
	tokens  *TokenService
	limiter *LoginLimiter
}

// NewHandler wires the user endpoints. limiter may be nil.
func NewHandler(users UserStore, tokens *TokenService, limiter *LoginLimiter) *Handler {
	return &Handler{users: users, tokens: tokens, limiter: limiter}
}

// Signup creates a new user and returns a session token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := respond.Validate(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Missing fields")
		return
	}
	if len(req.Password) > maxPasswordBytes {
		respond.Message(w, http.StatusBadRequest, "Password must be at most 72 bytes")
		return
	}

	ctx := r.Context()
	_, err := h.users.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		respond.Message(w, http.StatusConflict, "User already exists")
		return
	case !errors.Is(err, models.ErrNotFound):
		respond.ServerError(w, r, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.DefaultRole
	}
	user, err := h.users.CreateUser(ctx, &models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hashed),
		Role:       role,
		University: req.University,
		Bio:        req.Bio,
	})
	if errors.Is(err, models.ErrEmailTaken) {
		respond.Message(w, http.StatusConflict, "User already exists")
		return
	}
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}

	h.writeSession(w, r, user)
}

// Login checks credentials and returns a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := respond.Validate(&req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Missing fields")
		return
	}

	ctx := r.Context()
	blocked, err := h.limiter.Blocked(ctx, req.Email)
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	if blocked {
		respond.Message(w, http.StatusTooManyRequests, "Too many failed login attempts, try again later")
		return
	}

	user, err := h.users.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		respond.ServerError(w, r, err)
		return
	}

	hash := dummyHash
	if user != nil {
		hash = []byte(user.Password)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(req.Password)) != nil || user == nil {
		if err := h.limiter.Fail(ctx, req.Email); err != nil {
			log.Printf("login throttle: %v", err)
		}
		respond.Message(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if err := h.limiter.Reset(ctx, req.Email); err != nil {
		log.Printf("login throttle reset: %v", err)
	}
	h.writeSession(w, r, user)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, models.AuthResponse{Token: token, User: user.Summary()})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id.ID)
	if errors.Is(err, models.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		respond.ServerError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// UpdateMe applies the fields present in the body to the caller's profile.
// bio and university may be cleared; name, email and role may not.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	var req models.UpdateMeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		req.Email = &trimmed
	}
	for _, f := range []struct {
		name string
		v    *string
	}{{"name", req.Name}, {"email", req.Email}, {"role", req.Role}} {
		if f.v != nil && strings.TrimSpace(*f.v) == "" {
			respond.Message(w, http.StatusBadRequest, f.name+" cannot be empty")
			return
		}
	}

	user, err := h.users.UpdateUser(r.Context(), id.ID, models.UserUpdate{
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		University: req.University,
		Bio:        req.Bio,
	})
	switch {
	case errors.Is(err, models.ErrNotFound):
		respond.Message(w, http.StatusNotFound, "User not found")
	case errors.Is(err, models.ErrEmailTaken):
		respond.Message(w, http.StatusConflict, "Email already in use")
	case err != nil:
		respond.ServerError(w, r, err)
	default:
		respond.JSON(w, http.StatusOK, user)
	}
}
