package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleCreateUser upserts a user by email. A new account answers 201,
// an existing one answers 200 with the stored record untouched.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, msgNameEmailRequired)
		return
	}
	if err := core.ValidateUser(req.Name, req.Email); err != nil {
		writeMessage(w, http.StatusBadRequest, msgNameEmailRequired)
		return
	}

	user, created, err := s.ledger.CreateOrGetUser(r.Context(), req.Name, req.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to create user",
			applog.FieldError, err, applog.FieldEmail, core.NormalizeEmail(req.Email))
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, user)
}

// handleDeleteUser removes the user and all their transactions.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, msgUserNotFound)
		return
	}

	if err := s.ledger.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		s.logger.ErrorContext(r.Context(), "Failed to delete user",
			applog.FieldError, err, applog.FieldUserID, id)
		writeError(w, err)
		return
	}

	s.invalidateList(id)
	writeMessage(w, http.StatusOK, msgUserDeleted)
}
