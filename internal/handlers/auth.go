package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Elizabethomito/ewastetrack/backend/internal/auth"
	"github.com/Elizabethomito/ewastetrack/backend/internal/middleware"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Register handles POST /api/auth/register
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	// Self-registration can create admins unless the deployment turns it
	// off; admins are then created by an operator or the seed.
	if req.Role == models.RoleAdmin && s.NoAdminSignup {
		respondError(w, http.StatusForbidden, "admin accounts cannot self-register")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Department:   req.Department,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusBadRequest, "user already exists")
			return
		}
		s.storeError(w, r, err, "")
		return
	}

	token, err := s.token(&user)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	s.logger().Info("user registered", "user_id", user.ID, "role", user.Role)
	respond(w, http.StatusCreated, models.AuthResponse{
		Message: "user registered successfully",
		Token:   token,
		User:    user,
	})
}

// Login handles POST /api/auth/login
//
// An unknown email and a wrong password get the same answer, so the
// endpoint cannot be used to discover which emails are registered.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := s.Store.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusBadRequest, "invalid credentials")
		return
	}
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	token, err := s.token(user)
	if err != nil {
		s.storeError(w, r, err, "")
		return
	}
	respond(w, http.StatusOK, models.AuthResponse{
		Message: "login successful",
		Token:   token,
		User:    *user,
	})
}

// Profile handles GET /api/auth/profile
func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := s.Store.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		s.storeError(w, r, err, "user not found")
		return
	}
	respond(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/auth/profile. Only username and
// department can be changed; empty fields are left as they are.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decodeValid(w, r, &req) {
		return
	}
	user, err := s.Store.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()),
		req.Username, req.Department)
	if errors.Is(err, store.ErrDuplicate) {
		respondError(w, http.StatusBadRequest, "username already taken")
		return
	}
	if err != nil {
		s.storeError(w, r, err, "user not found")
		return
	}
	respond(w, http.StatusOK, models.UserActionResponse{Message: "profile updated successfully", User: user})
}
