package server

import (
	"net/http"
	"strconv"
	"time"
)

// secondsUntilNextTicket translates the zero_at marker into a client-facing
// countdown. Zero means no restore is pending.
func (s *Server) secondsUntilNextTicket(zeroAt *time.Time) int64 {
	if zeroAt == nil {
		return 0
	}
	left := time.Until(zeroAt.Add(s.cfg.RestoreEvery))
	if left < 0 {
		return 0
	}
	return int64(left.Seconds())
}

func (s *Server) handleTickets(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"tickets":                acct.Tickets,
		"totalSpins":             acct.TotalSpins,
		"totalWins":              acct.TotalWins,
		"secondsUntilNextTicket": s.secondsUntilNextTicket(acct.ZeroAt),
	})
}

type entryView struct {
	Delta     int       `json:"delta"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) handleTicketHistory(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.ledger.History(r.Context(), acct.ID, limit)
	if err != nil {
		s.log.Error().Err(err).Int64("account", acct.ID).Msg("ticket history failed")
		writeError(w, http.StatusServiceUnavailable, "service unavailable", "unavailable")
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{Delta: e.Delta, Source: string(e.Source), CreatedAt: e.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": views})
}

type spinView struct {
	SpinID        string    `json:"spinId"`
	SectorOrdinal int       `json:"sectorOrdinal"`
	PrizeKind     string    `json:"prizeKind"`
	PrizeAmount   int       `json:"prizeAmount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (s *Server) handleSpinHistory(w http.ResponseWriter, r *http.Request) {
	acct := accountFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := s.records.Recent(r.Context(), acct.ID, limit)
	if err != nil {
		s.log.Error().Err(err).Int64("account", acct.ID).Msg("spin history failed")
		writeError(w, http.StatusServiceUnavailable, "service unavailable", "unavailable")
		return
	}
	views := make([]spinView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, spinView{
			SpinID:        rec.ID.String(),
			SectorOrdinal: rec.Ordinal,
			PrizeKind:     string(rec.PrizeKind),
			PrizeAmount:   rec.PrizeAmount,
			Status:        string(rec.Status),
			CreatedAt:     rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"spins": views})
}
