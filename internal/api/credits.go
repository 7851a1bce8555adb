package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/digkill/TivoaArt/internal/service"
)

type amountRequest struct {
	AmountUSD json.RawMessage `json:"amountUSD"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	preview, err := s.svc.Payments.Preview(service.ParseAmount(req.AmountUSD))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to preview credits")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"amountUSD": preview.AmountUSD.InexactFloat64(),
		"credits":   preview.Credits,
		"message":   "Logged on the server",
	})
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := s.svc.Payments.Initiate(r.Context(), principal(r).UserID, service.ParseAmount(req.AmountUSD))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to initiate payment")
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentID string `json:"paymentID"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.PaymentID) == "" {
		s.writeError(w, http.StatusBadRequest, "paymentID required")
		return
	}
	res, err := s.svc.Payments.Execute(r.Context(), principal(r).UserID, strings.TrimSpace(req.PaymentID))
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to execute payment")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"creditsAdded": res.CreditsAdded,
		"trxID":        res.TrxID,
	})
}

func (s *Server) handleCreditSettings(w http.ResponseWriter, r *http.Request) {
	rates, err := s.svc.Settings.CreditRates(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err, "Failed to load settings")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"usdToBdt":         rates.USDToBDT.InexactFloat64(),
		"creditsPerDollar": rates.CreditsPerDollar.InexactFloat64(),
	})
}
