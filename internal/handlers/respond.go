package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"familycard/internal/service"
	"familycard/internal/utils"
)

// envelope is the uniform {data, error} result shape
type envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondWithData(w http.ResponseWriter, status int, data any) {
	respondWithJSON(w, status, envelope{Data: data})
}

func respondWithError(w http.ResponseWriter, status int, msg string) {
	respondWithJSON(w, status, map[string]string{"error": msg})
}

// respondWithServiceError maps a service failure onto the right status:
// validation problems are the caller's fault, unowned or missing rows
// read as not found, and anything the store reported is passed through
// verbatim with a 400 like every other rejected request.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var verr utils.ValidationError
	if errors.As(err, &verr) {
		respondWithError(w, http.StatusBadRequest, verr.Error())
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "record not found")
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// CORS allows browser frontends on other origins to call the API
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSONBody decodes a request body, rejecting malformed JSON
func decodeJSONBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}
