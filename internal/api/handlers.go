package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/jeanpaul/sakemate/internal/health"
	"github.com/jeanpaul/sakemate/internal/menu"
	"github.com/jeanpaul/sakemate/internal/session"
	"github.com/jeanpaul/sakemate/internal/sommelier"
	"github.com/jeanpaul/sakemate/internal/store"
	"github.com/jeanpaul/sakemate/internal/types"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 64 << 10

type nameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type selectRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type usersResponse struct {
	Users       []types.User `json:"users"`
	CanRegister bool         `json:"canRegister"`
	MaxUsers    int          `json:"maxUsers"`
}

type sessionResponse struct {
	User *types.User `json:"user"`
}

type brandsResponse struct {
	Brands []types.SakeBrand `json:"brands"`
}

// decodeJSON reads a bounded JSON body into v and validates it. It writes
// the error response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid request body", err)
		return false
	}
	if nr, ok := v.(*nameRequest); ok {
		nr.Name = strings.TrimSpace(nr.Name)
	}
	if err := validate.Struct(v); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err), nil)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	}
	return field + " is invalid"
}

// requireUser writes 401 NO_SESSION when nobody is selected.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	u, err := s.session.Require()
	if err != nil {
		respondError(w, r, http.StatusUnauthorized, "NO_SESSION", "select a user first", nil)
		return types.User{}, false
	}
	return u, true
}

func storageError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage is unavailable, try again later", err)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := health.CheckStore(r.Context(), s.store.Backend())
	if !st.Reachable {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", st.Error, nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users := s.store.ListUsers(r.Context())
	if users == nil {
		users = []types.User{}
	}
	respondJSON(w, http.StatusOK, usersResponse{
		Users:       users,
		CanRegister: len(users) < types.MaxUsers,
		MaxUsers:    types.MaxUsers,
	})
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u := types.NewUser(req.Name)
	switch err := s.store.AddUser(r.Context(), u); {
	case errors.Is(err, store.ErrCapacityExceeded):
		respondError(w, r, http.StatusConflict, "CAPACITY_EXCEEDED", err.Error(), nil)
		return
	case err != nil:
		storageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{}
	if u, ok := s.session.Current(); ok {
		resp.User = &u
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectUser(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.session.Select(r.Context(), req.UserID)
	switch {
	case errors.Is(err, session.ErrUnknownUser):
		respondError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "no user with that id", nil)
		return
	case err != nil:
		storageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{User: &u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(r.Context()); err != nil {
		storageError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBrands(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		u, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		userID = u.ID
	}
	respondJSON(w, http.StatusOK, brandsResponse{Brands: s.store.ListBrands(r.Context(), userID)})
}

func (s *Server) handleAnalyzeBrand(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, s.som.AnalyzeSakeBrand(r.Context(), req.Name))
}

func (s *Server) handleAddBrand(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	analysis := s.som.AnalyzeSakeBrand(r.Context(), req.Name)
	// A cancelled lookup yields the neutral fallback; the caller is gone, so
	// nothing is saved.
	if err := r.Context().Err(); err != nil {
		respondError(w, r, statusClientClosedRequest, "CANCELLED", "brand lookup was cancelled", err)
		return
	}
	brand := types.NewBrand(u.ID, analysis)
	if err := s.store.AddBrand(r.Context(), brand); err != nil {
		storageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, brand)
}

func (s *Server) handleDeleteBrand(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	removed, err := s.store.DeleteUserBrand(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		storageError(w, r, err)
		return
	}
	if !removed {
		respondError(w, r, http.StatusNotFound, "BRAND_NOT_FOUND", "no such brand for the current user", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	brands := s.store.ListBrands(r.Context(), u.ID)
	if len(brands) == 0 {
		respondError(w, r, http.StatusUnprocessableEntity, "NO_BRANDS", "register at least one favourite brand first", nil)
		return
	}

	data, err := s.readMenu(w, r)
	if err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			respondError(w, r, http.StatusRequestEntityTooLarge, "MENU_TOO_LARGE", "menu image is too large", nil)
		case errors.Is(err, http.ErrMissingFile):
			respondError(w, r, http.StatusBadRequest, "MISSING_MENU", `multipart field "menu" is required`, nil)
		default:
			respondError(w, r, http.StatusBadRequest, "INVALID_MENU", "could not read the menu upload", err)
		}
		return
	}

	doc, err := menu.FromBytes(data, s.opts.MaxImageBytes)
	switch {
	case errors.Is(err, menu.ErrEmpty):
		respondError(w, r, http.StatusBadRequest, "EMPTY_MENU", "menu upload is empty", nil)
		return
	case errors.Is(err, menu.ErrTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, "MENU_TOO_LARGE", "menu image is too large", nil)
		return
	case errors.Is(err, menu.ErrUnsupportedMedia):
		respondError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA", "menu must be a JPEG, PNG, WebP, GIF, HEIC/HEIF image or a PDF", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusBadRequest, "INVALID_MENU", "could not read the menu upload", err)
		return
	}

	result, err := s.som.AnalyzeMenuAndRecommend(r.Context(), doc, brands)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "ANALYSIS_FAILED", "the menu could not be analyzed, try another photo", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// readMenu returns the uploaded menu bytes, from the multipart field "menu"
// or from the raw request body.
func (s *Server) readMenu(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	// multipart framing needs some room beyond the file itself
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxImageBytes+1<<20)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	f, _, err := r.FormFile("menu")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, s.opts.MaxImageBytes+1))
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(r.Context()); err != nil {
		storageError(w, r, err)
		return
	}
	s.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

var _ Sommelier = (*sommelier.Sommelier)(nil)
