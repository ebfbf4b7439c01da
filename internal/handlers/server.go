// Package handlers contains the HTTP handler logic for the e-waste API.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — package structure
// ────────────────────────────────────────────────────────────────────
// All handler files share the same "handlers" package so they can call
// each other's helpers freely without exporting them. The files are
// split by resource (auth, ewaste, campaigns, users, reports) purely for
// readability.
//
// The central type is Server. It holds what every handler needs: a
// store.Store and the JWT settings. The store is an interface, so the same
// handlers run against SQLite, MongoDB or the in-memory fallback, and each
// test creates its own Server with its own throwaway store.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Elizabethomito/ewastetrack/backend/internal/auth"
	"github.com/Elizabethomito/ewastetrack/backend/internal/logging"
	"github.com/Elizabethomito/ewastetrack/backend/internal/models"
	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Store modes reported by the health endpoint.
const (
	ModePrimary  = "primary"
	ModeFallback = "fallback"
)

// respond writes v as JSON with the given HTTP status code.
// Setting Content-Type before WriteHeader is important: once
// WriteHeader is called the headers are flushed and cannot be changed.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring the encode error: if the client disconnected mid-write
	// there is nothing useful we can do.
	_ = json.NewEncoder(w).Encode(body)
}

// errorBody is the shape of every error response.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// respondError sends {"message": msg}.
func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, errorBody{Message: msg})
}

// decode reads and parses a JSON request body into v.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// validate checks `validate` struct tags. Field names in error messages
// use the json tag so they match what the client sent.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// normalizer is implemented by requests that tidy their fields (trimming
// whitespace, lower-casing emails) before validation.
type normalizer interface {
	Normalize()
}

// decodeValid decodes the body into v, normalizes it and validates it. On
// failure it has already written a 400 and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decode(r, v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	if n, ok := v.(normalizer); ok {
		n.Normalize()
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondError(w, http.StatusBadRequest, "validation failed")
			return false
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+": "+fe.Tag())
		}
		respond(w, http.StatusBadRequest, errorBody{
			Message: "validation failed",
			Error:   strings.Join(fields, ", "),
		})
		return false
	}
	return true
}

// Server holds shared dependencies for all handlers.
type Server struct {
	Store store.Store
	// Secret is the HMAC key used to sign and verify JWTs.
	Secret string
	// TokenTTL is how long issued tokens stay valid. Zero means
	// auth.DefaultTokenTTL.
	TokenTTL time.Duration
	// NoAdminSignup rejects registrations that ask for the admin role.
	NoAdminSignup bool
	// Mode is ModePrimary or ModeFallback.
	Mode string
	Log  *slog.Logger
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Server) token(u *models.User) (string, error) {
	return auth.GenerateToken(u.ID, u.Email, string(u.Role), s.Secret, s.TokenTTL)
}

// storeError maps an error from the store or the domain model to a
// response. Anything unrecognised is logged and reported as a bare 500 so
// internal details never reach the client.
//
// Once the request context is done nothing is written: the Timeout
// middleware answers 504 for an expired deadline, and a cancelled request
// has no client left to answer.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var se *models.StateError
	switch {
	case r.Context().Err() != nil:
		s.logger().Warn("request ended before the store answered",
			"method", r.Method, "path", r.URL.Path, logging.Err(err))
	case errors.As(err, &se):
		respondError(w, http.StatusBadRequest, se.Msg)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, store.ErrDuplicate):
		respondError(w, http.StatusBadRequest, "already exists")
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		s.logger().Warn("store unavailable", "method", r.Method, "path", r.URL.Path, logging.Err(err))
		respondError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.logger().Error("request failed", "method", r.Method, "path", r.URL.Path, logging.Err(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ---- expansion ----
//
// Resources reference users by id. Before they are returned, those ids are
// resolved in one GetUsersByIDs call per response, each distinct id once.

func (s *Server) usersByID(ctx context.Context, ids []string) (map[string]*models.User, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return map[string]*models.User{}, nil
	}
	return s.Store.GetUsersByIDs(ctx, unique)
}

func summary(users map[string]*models.User, id string) *models.UserSummary {
	if u, ok := users[id]; ok {
		return u.Summary()
	}
	return nil
}

func (s *Server) expandItems(ctx context.Context, items []models.Item) error {
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ReportedBy)
		if it.Vendor != "" {
			ids = append(ids, it.Vendor)
		}
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].Reporter = summary(users, items[i].ReportedBy)
		if items[i].Vendor != "" {
			items[i].VendorUser = summary(users, items[i].Vendor)
		}
	}
	return nil
}

func (s *Server) expandItem(ctx context.Context, it *models.Item) error {
	one := []models.Item{*it}
	if err := s.expandItems(ctx, one); err != nil {
		return err
	}
	*it = one[0]
	return nil
}

func (s *Server) expandCampaigns(ctx context.Context, cs []models.Campaign) error {
	var ids []string
	for _, c := range cs {
		ids = append(ids, c.CreatedBy)
		for _, p := range c.Participants {
			ids = append(ids, p.User)
		}
	}
	users, err := s.usersByID(ctx, ids)
	if err != nil {
		return err
	}
	for i := range cs {
		cs[i].Creator = summary(users, cs[i].CreatedBy)
		for j := range cs[i].Participants {
			cs[i].Participants[j].Profile = summary(users, cs[i].Participants[j].User)
		}
	}
	return nil
}

func (s *Server) expandCampaign(ctx context.Context, c *models.Campaign) error {
	one := []models.Campaign{*c}
	if err := s.expandCampaigns(ctx, one); err != nil {
		return err
	}
	*c = one[0]
	return nil
}
