// Package respond writes JSON responses and parses common request parameters.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	appErrors "github.com/unclebandit/newsletter-backend/internal/errors"
)

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// Error renders err as {"detail": "..."} with the status its type maps to.
func Error(w http.ResponseWriter, err error) {
	status := appErrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	JSON(w, status, map[string]string{"detail": err.Error()})
}

// Message writes {"message": msg} with 200.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}
