package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"edis-portal/internal/models"
	"edis-portal/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeSuccess[T any](w http.ResponseWriter, message string, data T) {
	writeJSON(w, http.StatusOK, models.Success(message, data))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.Failure(message, nil))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation   *services.ValidationError
		badRequest   *services.BadRequestError
		conflict     *services.ConflictError
		notFound     *services.NotFoundError
		unauthorized *services.UnauthorizedError
		rateLimit    *services.RateLimitError
	)

	switch {
	case errors.As(err, &validation):
		// A single failing field is reported as a plain message.
		if len(validation.Fields) == 1 {
			for _, msg := range validation.Fields {
				writeError(w, http.StatusBadRequest, msg)
			}
			return
		}
		writeJSON(w, http.StatusBadRequest, models.Failure("Validation failed", validation.Fields))
	case errors.As(err, &badRequest):
		writeError(w, http.StatusBadRequest, badRequest.Message)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Message)
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusUnauthorized, unauthorized.Message)
	case errors.As(err, &rateLimit):
		writeError(w, http.StatusTooManyRequests, rateLimit.Message)
	default:
		log.Printf("[api] %s %s failed (request %s): %v", r.Method, r.URL.Path, r.Header.Get("X-Request-ID"), err)
		writeError(w, http.StatusInternalServerError, "Unexpected error occurred")
	}
}
