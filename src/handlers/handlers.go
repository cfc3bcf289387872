// src/handlers/handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/username/spendlens/src/logger"
	"github.com/username/spendlens/src/services"
	"github.com/username/spendlens/src/utils"
)

type contextKey string

const maxJSONBodyBytes = 1 << 20

// sendServiceError maps a service error onto an HTTP status. Client errors echo
// the service message; anything else is logged and hidden behind a generic one.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, services.ErrNotFound):
		log.Debug("Request target not found", "action", action, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, services.ErrParsingFailed):
		log.Warn("Request rejected", "action", action, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Error("Request failed", "action", action, "error", err)
		utils.SendJSONError(w, "failed to "+action, http.StatusInternalServerError)
	}
}

// pathID reads the positive integer {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryID reads an optional positive integer query parameter. An absent
// parameter yields nil.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	return &id, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
