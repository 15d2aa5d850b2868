package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// createTransactionRequest uses a pointer amount to tell a missing
// field apart from a zero one: absent maps to the missing-fields
// message, zero to the amount bound error.
type createTransactionRequest struct {
	Title    string      `json:"title"`
	Amount   *core.Money `json:"amount"`
	Category string      `json:"category"`
	Type     core.TxType `json:"type"`
	User     int64       `json:"user"`
	Date     *time.Time  `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if core.IsValidation(err) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		writeMessage(w, http.StatusBadRequest, msgMissingFields)
		return
	}
	if req.Title == "" || req.Amount == nil || req.Type == "" || req.User == 0 {
		writeMessage(w, http.StatusBadRequest, msgMissingFields)
		return
	}

	tx := core.Transaction{
		UserID:   req.User,
		Title:    req.Title,
		Amount:   *req.Amount,
		Category: req.Category,
		Type:     req.Type,
	}
	if tx.Category == "" {
		tx.Category = "General"
	}
	if req.Date != nil {
		tx.Date = *req.Date
	}

	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		if !core.IsValidation(err) {
			s.logger.ErrorContext(r.Context(), "Failed to create transaction",
				applog.FieldError, err, applog.FieldUserID, tx.UserID)
		}
		writeError(w, err)
		return
	}

	s.invalidateList(created.UserID)
	writeJSON(w, http.StatusCreated, created)
}

// handleListTransactions returns a user's transactions, most recent
// first. The list is served from the per-user cache when fresh.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	rawUserID := r.URL.Query().Get("userId")
	if rawUserID == "" {
		writeMessage(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil || userID <= 0 {
		writeMessage(w, http.StatusBadRequest, msgUserIDRequired)
		return
	}

	txs, err := s.listTransactions(r, userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to list transactions",
			applog.FieldError, err, applog.FieldUserID, userID)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	tx, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}

	deleted, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	s.invalidateList(deleted.UserID)
	// Lets the dashboard partial refresh itself after an HTMX delete.
	w.Header().Set("HX-Trigger", "transaction:deleted")
	writeMessage(w, http.StatusOK, msgTransactionDeleted)
}

func listCacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Server) invalidateList(userID int64) {
	s.listCache.Delete(listCacheKey(userID))
}

func (s *Server) listTransactions(r *http.Request, userID int64) ([]core.Transaction, error) {
	key := listCacheKey(userID)
	if txs, found := s.listCache.Get(key); found {
		// Copy so handlers can't mutate the cached slice.
		out := make([]core.Transaction, len(txs))
		copy(out, txs)
		return out, nil
	}

	txs, err := s.ledger.ListTransactions(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(key, txs)
	return txs, nil
}
