package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/digkill/TivoaArt/internal/models"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
	userCookie    = "user"
	stateCookie   = "oauth_state"
)

// publicUser is the display copy handed to the browser. The server never reads it back.
type publicUser struct {
	ID    int64       `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

func toPublicUser(u *models.User) publicUser {
	return publicUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (s *Server) cookie(name, value string, maxAge time.Duration, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: httpOnly,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) setSessionCookies(w http.ResponseWriter, user *models.User, access, refresh string) {
	http.SetCookie(w, s.cookie(accessCookie, access, s.opts.AccessTTL, true))
	http.SetCookie(w, s.cookie(refreshCookie, refresh, s.opts.RefreshTTL, true))
	if user == nil {
		return
	}
	raw, err := json.Marshal(toPublicUser(user))
	if err != nil {
		return
	}
	http.SetCookie(w, s.cookie(userCookie, url.PathEscape(string(raw)), s.opts.RefreshTTL, false))
}

func (s *Server) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie, userCookie} {
		c := s.cookie(name, "", 0, name != userCookie)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
