package http

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// handleLoginPage renders the login form, or bounces straight to the
// dashboard when a session is already present.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", nil)
}

// handleLogin upserts the account for the submitted name and email and
// opens a session for it.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	name := sanitizeInput(r.Form.Get("name"))
	email := sanitizeInput(r.Form.Get("email"))
	if err := core.ValidateUser(name, email); err != nil {
		http.Error(w, msgNameEmailRequired, http.StatusBadRequest)
		return
	}

	user, created, err := s.ledger.CreateOrGetUser(r.Context(), name, email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Login failed",
			applog.FieldError, err, applog.FieldEmail, core.NormalizeEmail(email))
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	s.logger.InfoContext(r.Context(), "User logged in",
		applog.FieldUserID, user.ID, "new_account", created)

	setSession(w, user)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := currentSession(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "dashboard.html", struct {
		Name   string
		UserID int64
	}{Name: user.Name, UserID: user.ID})
}

// summaryRow is one category bar of the histogram partial. Width is a
// percentage of the largest bucket.
type summaryRow struct {
	Name, Amount string
	Width        int
}

type summaryItem struct {
	ID          int64
	Date        string
	Title       string
	Amount      string
	Category    string
	IsExpense   bool
	TypeDisplay string
}

// handleSummaryPartial renders the totals, histogram and transaction
// list for the active user. Loaded over HTMX from the dashboard.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	user, ok := currentSession(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`<div class="error">Session expired, please log in again</div>`))
		return
	}

	txs, err := s.listTransactions(r, user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary load failed",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		_, _ = w.Write([]byte(`<section id="summary"><div class="error">Could not load your data</div></section>`))
		return
	}

	summary := core.Summarize(txs)

	var maxCents int64
	for _, row := range summary.ByCategory {
		if row.Amount.Cents > maxCents {
			maxCents = row.Amount.Cents
		}
	}

	data := struct {
		TotalIncome  string
		TotalExpense string
		Balance      string
		Negative     bool
		Rows         []summaryRow
		Items        []summaryItem
	}{
		TotalIncome:  formatAmount(summary.TotalIncome.Cents),
		TotalExpense: formatAmount(summary.TotalExpense.Cents),
		Balance:      formatAmount(summary.Balance.Cents),
		Negative:     summary.Balance.Cents < 0,
	}
	for _, row := range summary.ByCategory {
		data.Rows = append(data.Rows, summaryRow{
			Name:   row.Name,
			Amount: formatAmount(row.Amount.Cents),
			Width:  barWidth(row.Amount.Cents, maxCents),
		})
	}
	for _, tx := range txs {
		data.Items = append(data.Items, summaryItem{
			ID:          tx.ID,
			Date:        tx.Date.Format("02 Jan 2006"),
			Title:       tx.Title,
			Amount:      formatAmount(tx.Amount.Cents),
			Category:    tx.Category,
			IsExpense:   tx.Type == core.Expense,
			TypeDisplay: string(tx.Type),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "summary.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			applog.FieldError, err, "template", "summary.html")
		_, _ = w.Write([]byte(`<section id="summary"><div class="error">Rendering failed</div></section>`))
	}
}

func (s *Server) handleTransactionForm(w http.ResponseWriter, r *http.Request) {
	user, ok := currentSession(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "transaction_form.html", struct {
		Name  string
		Today string
	}{Name: user.Name, Today: time.Now().Format("2006-01-02")})
}

// handleTransactionFormSubmit is the HTMX form path. It answers with an
// inline status fragment and triggers a summary refresh on success.
func (s *Server) handleTransactionFormSubmit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	user, ok := currentSession(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`<div class="error">Session expired, please log in again</div>`))
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid form</div>`))
		return
	}

	title := sanitizeInput(r.Form.Get("title"))
	category := sanitizeInput(r.Form.Get("category"))
	txType := core.TxType(strings.TrimSpace(r.Form.Get("type")))

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid amount</div>`))
		return
	}

	tx := core.Transaction{
		UserID:   user.ID,
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Type:     txType,
	}
	if v := strings.TrimSpace(r.Form.Get("date")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			tx.Date = d
		}
	}

	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		if core.IsValidation(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(err.Error()) + `</div>`))
			return
		}
		s.logger.ErrorContext(r.Context(), "Form transaction create failed",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Could not save the transaction</div>`))
		return
	}

	s.invalidateList(user.ID)
	w.Header().Set("HX-Trigger", `{"transaction:created": {"id": `+strconv.FormatInt(created.ID, 10)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Saved: ` +
		template.HTMLEscapeString(created.Title) + ` (` +
		template.HTMLEscapeString(formatAmount(created.Amount.Cents)) + `)</div>`))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			applog.FieldError, err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// barWidth returns a rounded percentage of maxCents, floored at 2 for
// visibility of tiny buckets.
func barWidth(cents, maxCents int64) int {
	if maxCents <= 0 || cents <= 0 {
		return 0
	}
	width := int((cents*100 + maxCents/2) / maxCents)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

func formatAmount(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100
	out := strconv.FormatInt(units, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-€" + out
	}
	return "€" + out
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
