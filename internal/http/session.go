package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"bilancio/internal/core"
)

const sessionCookie = "bilancio_user"

// sessionUser is the active user carried in the session cookie. The
// cookie is not signed: anyone can claim any account, which matches the
// open single-household trust model of the app.
type sessionUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func setSession(w http.ResponseWriter, u core.User) {
	payload, err := json.Marshal(sessionUser{ID: u.ID, Name: u.Name, Email: u.Email})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    base64.URLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentSession returns the active user from the cookie, or false when
// no valid session exists.
func currentSession(r *http.Request) (sessionUser, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return sessionUser{}, false
	}
	payload, err := base64.URLEncoding.DecodeString(c.Value)
	if err != nil {
		return sessionUser{}, false
	}
	var u sessionUser
	if err := json.Unmarshal(payload, &u); err != nil || u.ID <= 0 {
		return sessionUser{}, false
	}
	return u, true
}
