package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/glowtap/luckywheel-backend/spin"
)

type sectorView struct {
	Ordinal   int    `json:"ordinal"`
	PrizeKind string `json:"prizeKind"`
	Amount    int    `json:"amount"`
	Label     string `json:"label,omitempty"`
	Icon      string `json:"icon,omitempty"`
}

// handleSectors returns the active wheel layout for rendering. Weights are
// withheld: the client animates, the server decides.
func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sectors.ActiveSnapshot(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("sector snapshot failed")
		writeError(w, http.StatusServiceUnavailable, "service unavailable", "unavailable")
		return
	}
	views := make([]sectorView, 0, len(snap.Sectors))
	for _, sec := range snap.Sectors {
		views = append(views, sectorView{
			Ordinal:   sec.Ordinal,
			PrizeKind: string(sec.Kind),
			Amount:    sec.Amount,
			Label:     sec.Label,
			Icon:      sec.Icon,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sectors": views})
}

type spinResponse struct {
	Success                bool    `json:"success"`
	Reason                 string  `json:"reason,omitempty"`
	SpinID                 string  `json:"spinId,omitempty"`
	PrizeKind              string  `json:"prizeKind,omitempty"`
	PrizeMagnitude         int     `json:"prizeMagnitude,omitempty"`
	SectorOrdinal          int     `json:"sectorOrdinal,omitempty"`
	RotationAngle          float64 `json:"rotationAngle,omitempty"`
	Label                  string  `json:"label,omitempty"`
	Message                string  `json:"message,omitempty"`
	TicketsRemaining       int     `json:"ticketsRemaining"`
	SecondsUntilNextTicket int64   `json:"secondsUntilNextTicket,omitempty"`
}

// handleSpin runs the decision phase. Running out of tickets is a normal
// outcome, not an HTTP error: 200 with success=false and a reason.
func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	res, err := s.spins.Spin(r.Context(), acct.ID)
	switch {
	case errors.Is(err, spin.ErrNoTickets):
		writeJSON(w, http.StatusOK, spinResponse{
			Success:                false,
			Reason:                 "no_tickets",
			SecondsUntilNextTicket: s.secondsUntilNextTicket(acct.ZeroAt),
		})
		return
	case errors.Is(err, spin.ErrNoSectors):
		writeError(w, http.StatusConflict, "the wheel is not configured", "no_sectors")
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, "please try again later", "retry_later")
		return
	}
	resp := spinResponse{
		Success:          true,
		SpinID:           res.SpinID.String(),
		PrizeKind:        string(res.Sector.Kind),
		PrizeMagnitude:   res.Sector.Amount,
		SectorOrdinal:    res.Sector.Ordinal,
		RotationAngle:    res.Angle,
		Label:            res.Sector.Label,
		Message:          res.Sector.Message,
		TicketsRemaining: res.Tickets,
	}
	if res.NextTicketIn > 0 {
		resp.SecondsUntilNextTicket = int64(res.NextTicketIn.Seconds())
	}
	writeJSON(w, http.StatusOK, resp)
}

type notifyRequest struct {
	SpinID        string  `json:"spinId"`
	ReportedAngle float64 `json:"reportedAngle"`
}

type notifyResponse struct {
	SectorOrdinal int  `json:"sectorOrdinal"`
	Mismatch      bool `json:"mismatch"`
}

// handleSpinNotify is the post-animation cross-check. The response always
// carries the server-decided ordinal; a mismatch only flags the record.
func (s *Server) handleSpinNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "bad_request")
		return
	}
	spinID, err := uuid.Parse(req.SpinID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid spin id", "bad_request")
		return
	}
	acct := accountFrom(r)
	ver, err := s.spins.Verify(r.Context(), acct.ID, spinID, req.ReportedAngle)
	switch {
	case errors.Is(err, spin.ErrNotFound):
		writeError(w, http.StatusNotFound, "spin not found", "not_found")
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, "please try again later", "retry_later")
		return
	}
	writeJSON(w, http.StatusOK, notifyResponse{SectorOrdinal: ver.Ordinal, Mismatch: ver.Mismatch})
}
