package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glowtap/luckywheel-backend/ledger"
	"github.com/glowtap/luckywheel-backend/wheel"
)

type importRequest struct {
	Sectors []wheel.ImportSector `json:"sectors"`
}

// handleSectorImport replaces the active sector table in one transaction.
// Ordinals absent from the payload are deactivated, not deleted.
func (s *Server) handleSectorImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	if len(req.Sectors) == 0 {
		writeError(w, http.StatusBadRequest, "no sectors in payload", "bad_request")
		return
	}
	seen := make(map[int]bool, len(req.Sectors))
	for _, sec := range req.Sectors {
		if sec.Ordinal <= 0 {
			writeError(w, http.StatusBadRequest, "sector ordinals must be positive", "bad_request")
			return
		}
		if seen[sec.Ordinal] {
			writeError(w, http.StatusBadRequest, "duplicate sector ordinal", "bad_request")
			return
		}
		seen[sec.Ordinal] = true
		if !sec.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown prize kind", "bad_request")
			return
		}
		if sec.Weight.IsNegative() {
			writeError(w, http.StatusBadRequest, "sector weights must not be negative", "bad_request")
			return
		}
	}
	if err := s.sectors.Import(r.Context(), req.Sectors); err != nil {
		s.log.Error().Err(err).Msg("sector import failed")
		writeError(w, http.StatusServiceUnavailable, "import failed", "unavailable")
		return
	}
	s.log.Info().Int("sectors", len(req.Sectors)).Msg("sector table imported")
	writeJSON(w, http.StatusOK, map[string]any{"imported": len(req.Sectors)})
}

type adjustRequest struct {
	AccountID int64 `json:"accountId"`
	Delta     int   `json:"delta"`
}

// handleTicketAdjust grants or removes tickets through the ledger credit
// primitive, so manual support adjustments leave the same audit trail as
// everything else.
func (s *Server) handleTicketAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	if req.AccountID == 0 || req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "accountId and a non-zero delta are required", "bad_request")
		return
	}
	source := ledger.SourceAdminGrant
	if req.Delta < 0 {
		source = ledger.SourceAdminRemove
	}
	balance, err := s.ledger.Credit(r.Context(), req.AccountID, req.Delta, source, nil)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found", "not_found")
		return
	case errors.Is(err, ledger.ErrInsufficientTickets):
		writeError(w, http.StatusConflict, "removal would overdraw the balance", "insufficient")
		return
	case err != nil:
		s.log.Error().Err(err).Int64("account", req.AccountID).Msg("ticket adjustment failed")
		writeError(w, http.StatusServiceUnavailable, "adjustment failed", "unavailable")
		return
	}
	s.log.Info().Int64("account", req.AccountID).Int("delta", req.Delta).
		Int("balance", balance).Msg("tickets adjusted")
	writeJSON(w, http.StatusOK, map[string]any{"tickets": balance})
}
