package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
	"github.com/digkill/TivoaArt/internal/service"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.All(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to load settings")
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req models.AppSettings
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid settings")
		return
	}
	if err := s.svc.Settings.Save(r.Context(), req); err != nil {
		s.writeServiceError(w, r, err, "Save failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetAbout(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Content.About(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch about page.")
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSaveAbout(w http.ResponseWriter, r *http.Request) {
	var req service.AboutPage
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Sections and FAQs are required.")
		return
	}
	if err := s.svc.Content.SaveAbout(r.Context(), req); err != nil {
		s.writeServiceError(w, r, err, "Failed to save about page.")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "About/FAQ updated."})
}

func (s *Server) handleGetTerms(w http.ResponseWriter, r *http.Request) {
	s.getSections(w, r, repository.TermsSections, "Failed to fetch terms sections.")
}

func (s *Server) handleSaveTerms(w http.ResponseWriter, r *http.Request) {
	s.saveSections(w, r, repository.TermsSections, "Terms updated.", "Failed to save terms.")
}

func (s *Server) handleGetPrivacy(w http.ResponseWriter, r *http.Request) {
	s.getSections(w, r, repository.PrivacyPolicySections, "Failed to fetch privacy policy sections.")
}

func (s *Server) handleSavePrivacy(w http.ResponseWriter, r *http.Request) {
	s.saveSections(w, r, repository.PrivacyPolicySections, "Privacy policy updated.", "Failed to save privacy policy.")
}

func (s *Server) getSections(w http.ResponseWriter, r *http.Request, table repository.SectionTable, fallback string) {
	sections, err := s.svc.Content.Sections(r.Context(), table)
	if err != nil {
		s.writeServiceError(w, r, err, fallback)
		return
	}
	s.writeJSON(w, http.StatusOK, sections)
}

func (s *Server) saveSections(w http.ResponseWriter, r *http.Request, table repository.SectionTable, done, fallback string) {
	var req struct {
		Sections []models.Section `json:"sections"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Sections are required.")
		return
	}
	if err := s.svc.Content.SaveSections(r.Context(), table, req.Sections); err != nil {
		s.writeServiceError(w, r, err, fallback)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": done})
}

func (s *Server) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "All fields are required.")
		return
	}
	if err := s.svc.Contact.Submit(r.Context(), req.Name, req.Email, req.Message); err != nil {
		s.writeServiceError(w, r, err, "Could not save your message. Please try again.")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Request submitted!"})
}

func (s *Server) handleListContact(w http.ResponseWriter, r *http.Request) {
	page := models.Page{Page: queryInt(r, "page", 1), PerPage: queryInt(r, "perPage", 10)}
	res, err := s.svc.Contact.List(r.Context(), page, r.URL.Query().Get("sort"))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch contact requests")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"data": res.Requests, "total": res.Total})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortOrder := q.Get("sortDir")
	if sortOrder == "" {
		sortOrder = q.Get("sortOrder")
	}
	res, err := s.svc.Users.List(r.Context(), repository.UserFilter{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: sortOrder,
		Page:      models.Page{Page: queryInt(r, "page", 1), PerPage: queryInt(r, "perPage", 10)},
	})
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch users")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"users":      res.Users,
		"total":      res.Total,
		"page":       res.Page.Page,
		"perPage":    res.Page.PerPage,
		"totalPages": res.TotalPages,
	})
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleUserDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	details, err := s.svc.Users.Details(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch user details")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user":         details.User,
		"transactions": details.Transactions,
		"images":       details.Images,
	})
}

func (s *Server) handleUserTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	page := models.Page{Page: queryInt(r, "page", 1), PerPage: queryInt(r, "perPage", 10)}
	res, err := s.svc.Users.Transactions(r.Context(), id, page)
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to fetch transactions")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"transactions": res.Transactions,
		"total":        res.Total,
		"totalPages":   res.TotalPages,
	})
}

func (s *Server) handleBlockUser(w http.ResponseWriter, r *http.Request) {
	s.setBlocked(w, r, true, "User blocked successfully")
}

func (s *Server) handleUnblockUser(w http.ResponseWriter, r *http.Request) {
	s.setBlocked(w, r, false, "User unblocked successfully")
}

func (s *Server) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool, done string) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Users.SetBlocked(r.Context(), id, blocked); err != nil {
		s.writeServiceError(w, r, err, "Error updating user")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": done})
}
