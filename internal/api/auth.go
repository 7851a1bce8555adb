package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/service"
)

type credentialsRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	Name        string `json:"name"`
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return req, false
	}
	return req, true
}

func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.RequestSignupOTP(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.VerifySignupOTP(r.Context(), req.Email, req.OTP); err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified"})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	session, err := s.svc.Auth.CompleteSignup(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.setSessionCookies(w, session.User, session.AccessToken, session.RefreshToken)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":      session.User.ID,
			"email":   session.User.Email,
			"name":    session.User.Name,
			"credits": session.User.Credits,
		},
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	session, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.setSessionCookies(w, session.User, session.AccessToken, session.RefreshToken)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user":         toPublicUser(session.User),
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	})
}

func (s *Server) handleForgotRequestOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.RequestPasswordResetOTP(r.Context(), req.Email); err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (s *Server) handleForgotVerifyOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.VerifyPasswordResetOTP(r.Context(), req.Email, req.OTP); err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "OTP verified"})
}

func (s *Server) handleForgotReset(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// refreshTokenFrom prefers the body and falls back to the cookie.
func refreshTokenFrom(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	token := refreshTokenFrom(r, req.RefreshToken)
	if token == "" {
		s.writeError(w, http.StatusBadRequest, "refreshToken required")
		return
	}
	session, err := s.svc.Auth.Refresh(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, r, err, "Invalid/expired refresh token")
		return
	}
	s.setSessionCookies(w, session.User, session.AccessToken, session.RefreshToken)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = decodeJSON(r, &req)
	if token := refreshTokenFrom(r, req.RefreshToken); token != "" {
		if err := s.svc.Auth.Logout(r.Context(), token); err != nil {
			s.writeServiceError(w, r, err, "Server error")
			return
		}
	}
	s.clearSessionCookies(w)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Auth.Me(r.Context(), principal(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":        user.ID,
			"email":     user.Email,
			"name":      user.Name,
			"google_id": user.GoogleID,
			"credits":   user.Credits,
		},
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Auth.VerifyAccess(r.Context(), principal(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err, "Invalid token")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": toPublicUser(user)})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.svc.Auth.ChangePassword(r.Context(), principal(r).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeServiceError(w, r, err, "Something went wrong")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password updated successfully!"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}
	if err := s.svc.Auth.DeleteAccount(r.Context(), principal(r).UserID, req.Password); err != nil {
		s.writeServiceError(w, r, err, "Something went wrong")
		return
	}
	s.clearSessionCookies(w)
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Account deleted successfully"})
}

func (s *Server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Auth.GoogleEnabled() {
		s.writeError(w, http.StatusNotFound, "Google sign in is not configured")
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, s.cookie(stateCookie, state, 10*time.Minute, true))
	http.Redirect(w, r, s.svc.Auth.GoogleAuthURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	home := s.opts.FrontendURL + "/"
	state, err := r.Cookie(stateCookie)
	expired := s.cookie(stateCookie, "", 0, true)
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	if err != nil || state.Value == "" || state.Value != r.URL.Query().Get("state") {
		s.log.Warn("google callback state mismatch")
		http.Redirect(w, r, home, http.StatusFound)
		return
	}

	session, err := s.svc.Auth.GoogleSignIn(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Redirect(w, r, s.googleFailureURL(err), http.StatusFound)
		return
	}
	s.setSessionCookies(w, session.User, session.AccessToken, session.RefreshToken)
	http.Redirect(w, r, s.opts.FrontendURL+"/create", http.StatusFound)
}

// googleFailureURL sends blocked and deleted accounts to their explanation pages.
func (s *Server) googleFailureURL(err error) string {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		page := ""
		switch svcErr.Code {
		case service.CodeBlocked:
			page = "/blocked"
		case service.CodeDeleted:
			page = "/deleted"
		}
		if page != "" {
			q := url.Values{}
			if summary, ok := svcErr.Details.(map[string]any); ok {
				q.Set("email", stringValue(summary["email"]))
				q.Set("name", stringValue(summary["name"]))
			}
			return s.opts.FrontendURL + page + "?" + q.Encode()
		}
	}
	s.log.Error("google sign in failed", zap.Error(err))
	return s.opts.FrontendURL + "/"
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
