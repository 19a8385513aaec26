// Package service holds the business rules that sit between HTTP handlers and storage.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/auth"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/models/dto"
	"github.com/hongminglow/rideledger/internal/storage"
)

const tokenType = "bearer"

// UserService owns signup, login, bearer resolution and profile updates.
type UserService struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	log    *logging.Logger
}

func NewUserService(store storage.UserStore, tokens *auth.TokenManager, log *logging.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, log: log.WithComponent(logging.ComponentAuth)}
}

// Signup registers an active, non-superuser account.
func (s *UserService) Signup(ctx context.Context, req dto.SignupRequest) (models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.User{}, err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.store.CreateUser(ctx, models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, apperr.Conflict("email already registered")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.InfoContext(ctx, "user signed up", logging.NewFields().WithOperation(logging.OpSignup).WithUser(user.ID).ToSlice()...)
	return user, nil
}

// Authenticate checks credentials and issues a bearer token.
func (s *UserService) Authenticate(ctx context.Context, req dto.LoginRequest) (dto.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return dto.TokenResponse{}, err
	}
	user, err := s.store.UserByEmail(ctx, req.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return dto.TokenResponse{}, apperr.Unauthorized("incorrect email or password")
	case err != nil:
		return dto.TokenResponse{}, fmt.Errorf("find user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return dto.TokenResponse{}, apperr.Unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return dto.TokenResponse{}, apperr.New(apperr.KindInactive, "inactive user")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return dto.TokenResponse{}, fmt.Errorf("generate token: %w", err)
	}
	s.log.InfoContext(ctx, "user logged in", logging.NewFields().WithOperation(logging.OpLogin).WithUser(user.ID).ToSlice()...)
	return dto.TokenResponse{AccessToken: token, TokenType: tokenType}, nil
}

// Resolve turns a bearer token into an active user.
func (s *UserService) Resolve(ctx context.Context, token string) (models.User, error) {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindUnauthorized, "could not validate credentials", err)
	}
	user, err := s.store.UserByID(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.User{}, apperr.Unauthorized("could not validate credentials")
	case err != nil:
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return models.User{}, apperr.New(apperr.KindInactive, "inactive user")
	}
	return user, nil
}

// UpdateProfile applies a partial update to the actor's own account. Only
// superusers may change the active and superuser flags.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.User, upd dto.UserUpdate) (models.User, error) {
	if !actor.IsSuperuser {
		if upd.IsSuperuser.Set {
			return models.User{}, apperr.Forbidden("not authorized to modify superuser status")
		}
		if upd.IsActive.Set {
			return models.User{}, apperr.Forbidden("not authorized to modify active status")
		}
	}
	if err := upd.Validate(); err != nil {
		return models.User{}, err
	}

	var changes storage.UserChanges
	if upd.Email.HasValue() && upd.Email.Value != actor.Email {
		if err := s.ensureEmailFree(ctx, upd.Email.Value); err != nil {
			return models.User{}, err
		}
		changes.Email = upd.Email.Ptr()
	}
	if upd.Password.HasValue() {
		hash, err := auth.HashPassword(upd.Password.Value)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		changes.PasswordHash = &hash
	}
	changes.FullName = upd.FullName
	changes.IsActive = upd.IsActive.Ptr()
	changes.IsSuperuser = upd.IsSuperuser.Ptr()

	user, err := s.store.UpdateUser(ctx, actor.ID, changes)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.User{}, apperr.NotFound("user not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		return models.User{}, apperr.Conflict("email already registered")
	case err != nil:
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	s.log.InfoContext(ctx, "profile updated", logging.NewFields().WithOperation(logging.OpUpdate).WithUser(user.ID).ToSlice()...)
	return user, nil
}

// Get returns any user to a superuser.
func (s *UserService) Get(ctx context.Context, actor models.User, id int64) (models.User, error) {
	if !actor.IsSuperuser {
		return models.User{}, apperr.Forbidden("not authorized to access other users")
	}
	user, err := s.store.UserByID(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return models.User{}, apperr.NotFound("user not found")
	case err != nil:
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// EnsureSuperuser creates the bootstrap superuser unless the email is already
// registered. created reports whether a row was inserted.
func (s *UserService) EnsureSuperuser(ctx context.Context, email, password, fullName string) (user models.User, created bool, err error) {
	existing, err := s.store.UserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, false, fmt.Errorf("find superuser: %w", err)
	}

	req := dto.SignupRequest{Email: email, Password: password}
	if fullName != "" {
		req.FullName = &fullName
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.User{}, false, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, false, fmt.Errorf("hash password: %w", err)
	}
	user, err = s.store.CreateUser(ctx, models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  true,
	})
	if err != nil {
		return models.User{}, false, fmt.Errorf("create superuser: %w", err)
	}
	s.log.InfoContext(ctx, "superuser created", logging.NewFields().WithOperation(logging.OpStartup).WithUser(user.ID).ToSlice()...)
	return user, true, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.store.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return apperr.Conflict("email already registered")
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}
