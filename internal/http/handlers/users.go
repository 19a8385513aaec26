package handlers

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/http/respond"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
)

// UserService is the account behaviour the auth and profile endpoints need.
type UserService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (models.User, error)
	Authenticate(ctx context.Context, req dto.LoginRequest) (dto.TokenResponse, error)
	UpdateProfile(ctx context.Context, actor models.User, upd dto.UserUpdate) (models.User, error)
	Get(ctx context.Context, actor models.User, id int64) (models.User, error)
}

// AuthHandler owns signup and login.
type AuthHandler struct {
	users UserService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(users UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register attaches the public auth routes. limit wraps each of them.
func (h *AuthHandler) Register(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /signup", limit(http.HandlerFunc(h.handleSignup)))
	mux.Handle("POST /login", limit(http.HandlerFunc(h.handleLogin)))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.FromError(w, r, err)
		return
	}
	user, err := h.users.Signup(r.Context(), req)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created", user)
}

// handleLogin accepts the OAuth2 password form (username, password) as well as
// a JSON body with email and password.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(w, r, &req); err != nil {
			respond.FromError(w, r, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			respond.FromError(w, r, apperr.Validation(apperr.FieldError{Field: "body", Message: "invalid form payload"}))
			return
		}
		req = dto.LoginRequest{Email: strings.TrimSpace(r.PostForm.Get("username")), Password: r.PostForm.Get("password")}
	}

	token, err := h.users.Authenticate(r.Context(), req)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", token)
}

// UserHandler serves the caller's profile and the superuser lookup.
type UserHandler struct {
	users UserService
}

// NewUserHandler constructs the handler.
func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Register attaches the profile routes. authn wraps each of them.
func (h *UserHandler) Register(mux *http.ServeMux, authn func(http.Handler) http.Handler) {
	for _, prefix := range []string{"", "/users"} {
		mux.Handle("GET "+prefix+"/me", authn(http.HandlerFunc(h.handleMe)))
		mux.Handle("PUT "+prefix+"/me", authn(http.HandlerFunc(h.handleUpdateMe)))
	}
	mux.Handle("GET /users/{id}", authn(http.HandlerFunc(h.handleGet)))
}

func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func (h *UserHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var upd dto.UserUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		respond.FromError(w, r, err)
		return
	}
	updated, err := h.users.UpdateProfile(r.Context(), user, upd)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "user updated", updated)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	found, err := h.users.Get(r.Context(), user, id)
	if err != nil {
		respond.FromError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", found)
}
