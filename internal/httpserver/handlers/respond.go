package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"parkeasy/internal/models"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/util"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Validator is satisfied by validation.Validator.
type Validator interface {
	Validate(i interface{}) error
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	respondStatus(w, http.StatusOK, v)
}

func respondStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a bare 500.
func respondError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	var ve *models.ValidationError
	var se *models.SuspendedError
	switch {
	case errors.As(err, &ve):
		respondStatus(w, http.StatusUnprocessableEntity, errorBody{Error: ve.Message, Field: ve.Field})
	case errors.As(err, &se):
		respondStatus(w, http.StatusForbidden, errorBody{Error: se.Error()})
	case errors.Is(err, models.ErrNotFound):
		respondStatus(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, models.ErrConflict):
		respondStatus(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrEmailNotVerified):
		respondStatus(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthorized):
		respondStatus(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, models.ErrOTPInvalid), errors.Is(err, models.ErrOTPExpired), errors.Is(err, models.ErrResetTokenInvalid):
		respondStatus(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		lg.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		respondStatus(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decode reads the JSON body into dst and runs v over it when non-nil.
// It writes the error response itself and reports whether to continue.
func decode(w http.ResponseWriter, r *http.Request, v Validator, lg *zap.SugaredLogger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondStatus(w, http.StatusBadRequest, errorBody{Error: "malformed JSON body"})
		return false
	}
	if v != nil {
		if err := v.Validate(dst); err != nil {
			respondError(w, r, lg, err)
			return false
		}
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := util.ParseID(chi.URLParam(r, name))
	if err != nil {
		respondStatus(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return 0, false
	}
	return id, true
}

func origin(r *http.Request) audit.Origin {
	return audit.Origin{IP: util.ClientIP(r), UserAgent: r.UserAgent()}
}
