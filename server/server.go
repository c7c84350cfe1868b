package server

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	luckywheel "github.com/glowtap/luckywheel-backend"
	"github.com/glowtap/luckywheel-backend/config"
	"github.com/glowtap/luckywheel-backend/diag"
	"github.com/glowtap/luckywheel-backend/jobs"
	"github.com/glowtap/luckywheel-backend/ledger"
	"github.com/glowtap/luckywheel-backend/spin"
	"github.com/glowtap/luckywheel-backend/telegram"
	"github.com/glowtap/luckywheel-backend/wheel"
)

type Server struct {
	cfg     *config.Config
	log     zerolog.Logger
	sectors *wheel.Store
	ledger  *ledger.Store
	records *spin.Store
	spins   *spin.Service
	bot     *telegram.Client // nil when BOT_TOKEN is unset (local dev)
	sched   *jobs.Scheduler
}

func New(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	pool, err := luckywheel.GetPool(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sectors := wheel.NewStore(pool)
	ledgerStore := ledger.NewStore(pool)
	records := spin.NewStore(pool)
	diags := diag.NewStore(pool, log)

	var bot *telegram.Client
	if cfg.BotToken != "" {
		bot = telegram.NewClient(cfg.BotToken, log)
	}
	svcCfg := spin.Config{
		Sectors:      sectors,
		Ledger:       ledgerStore,
		Records:      records,
		Diag:         diags,
		RestoreEvery: cfg.RestoreEvery,
		Log:          log,
	}
	if bot != nil {
		svcCfg.Notify = bot
	}
	srv := &Server{
		cfg:     cfg,
		log:     log.With().Str("component", "server").Logger(),
		sectors: sectors,
		ledger:  ledgerStore,
		records: records,
		spins:   spin.New(svcCfg),
		bot:     bot,
		sched:   jobs.New(ledgerStore, bot, cfg.RestoreEvery, log),
	}
	return srv, nil
}

func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /api/wheel/sectors", s.auth(s.handleSectors))
	mux.HandleFunc("POST /api/wheel/spin", s.auth(s.handleSpin))
	mux.HandleFunc("POST /api/wheel/spin/notify", s.auth(s.handleSpinNotify))
	mux.HandleFunc("GET /api/tickets", s.auth(s.handleTickets))
	mux.HandleFunc("GET /api/tickets/history", s.auth(s.handleTicketHistory))
	mux.HandleFunc("GET /api/spins", s.auth(s.handleSpinHistory))
	// Admin surface: sector import is driven by cmd/sectorctl, ticket
	// adjustments by support tooling.
	mux.HandleFunc("POST /api/admin/sectors/import", s.adminOnly(s.handleSectorImport))
	mux.HandleFunc("POST /api/admin/tickets/adjust", s.adminOnly(s.handleTicketAdjust))

	if err := s.sched.Start(); err != nil {
		return err
	}
	defer s.sched.Stop()

	addr := ":" + strconv.Itoa(s.cfg.Port)
	s.log.Info().Str("addr", addr).Msg("wheel backend listening")
	return http.ListenAndServe(addr, cors(requestLogger(s.log, mux)))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "wheel"})
}
