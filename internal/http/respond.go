package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bilancio/internal/core"
)

// API messages for the non-payload responses.
const (
	msgNameEmailRequired  = "Name and email are required"
	msgUserIDRequired     = "UserId is required"
	msgMissingFields      = "Missing required fields (title, amount, type, user)"
	msgUserNotFound       = "User not found"
	msgNotFound           = "Not found"
	msgTransactionDeleted = "Transaction deleted"
	msgUserDeleted        = "User and all related transactions deleted"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError maps domain errors onto status codes: validation failures
// are 400, missing records 404, everything else 500 with the raw error
// text as the message.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound)
	default:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}
