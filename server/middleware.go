package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/glowtap/luckywheel-backend/ledger"
	"github.com/glowtap/luckywheel-backend/telegram"
)

type ctxKey int

const ctxAccount ctxKey = iota

// accountFrom returns the authenticated account placed by the auth middleware.
func accountFrom(r *http.Request) ledger.Account {
	acct, _ := r.Context().Value(ctxAccount).(ledger.Account)
	return acct
}

// auth validates Telegram initData, provisions the account on first sight and
// stores it on the request context. When BOT_TOKEN is unset and DEV_USER_ID is
// set, requests act as that account so the API is usable without Telegram.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID int64
		raw := initDataFrom(r)
		switch {
		case s.cfg.BotToken != "":
			u, err := telegram.ValidateInitData(raw, s.cfg.BotToken, s.cfg.InitDataMaxAge)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid init data", "unauthorized")
				return
			}
			userID = u.ID
		case s.cfg.DevUserID != 0:
			userID = s.cfg.DevUserID
		default:
			writeError(w, http.StatusUnauthorized, "authentication is not configured", "unauthorized")
			return
		}
		acct, err := s.ledger.EnsureAccount(r.Context(), userID, s.cfg.InitialTickets)
		if err != nil {
			s.log.Error().Err(err).Int64("account", userID).Msg("account provisioning failed")
			writeError(w, http.StatusServiceUnavailable, "service unavailable", "unavailable")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxAccount, acct)))
	}
}

// initDataFrom accepts "Authorization: tma <initData>" (the Mini App
// convention) or the X-Telegram-Init-Data header.
func initDataFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "tma ") {
		return strings.TrimPrefix(h, "tma ")
	}
	return r.Header.Get("X-Telegram-Init-Data")
}

// adminOnly gates the import endpoint behind the shared admin secret.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Admin-Secret")
		if s.cfg.AdminSecret == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(s.cfg.AdminSecret)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin secret", "unauthorized")
			return
		}
		next(w, r)
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data, X-Admin-Secret")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func requestLogger(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", rec.status).Dur("took", time.Since(start)).Msg("request")
	})
}
