package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digkill/TivoaArt/internal/service"
)

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	AspectRatio string  `json:"aspectRatio"`
	NumImages   flexInt `json:"numImages"`
	Enhance     *bool   `json:"enhance"`
	Seed        flexInt `json:"seed"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Missing or invalid prompt")
		return
	}
	enhance := req.Enhance == nil || *req.Enhance
	images, err := s.svc.Generation.Generate(r.Context(), principal(r).UserID, service.GenerateRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		NumImages:   int(req.NumImages),
		Enhance:     enhance,
		Seed:        int(req.Seed),
	})
	if err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	images, err := s.svc.Generation.Mine(r.Context(), principal(r).UserID)
	if err != nil {
		s.writeServiceError(w, r, err, "Server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"images": images})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.svc.Generation.SetFavorite(r.Context(), principal(r).UserID, id, req.Favorite); err != nil {
		s.writeServiceError(w, r, err, "Failed to update favorite")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "is_favorite": req.Favorite})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.svc.Generation.DeleteImage(r.Context(), principal(r).UserID, id); err != nil {
		s.writeServiceError(w, r, err, "Failed to delete image")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
