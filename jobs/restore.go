// Package jobs runs the scheduled background work: the periodic ticket
// restoration sweep.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/glowtap/luckywheel-backend/ledger"
	"github.com/glowtap/luckywheel-backend/telegram"
)

// Scheduler owns the cron instance. The sweep runs every minute and credits
// one ticket to every account whose balance has been at zero for the restore
// interval; the interval itself is enforced by the ledger query, anchored on
// the moment the balance hit zero.
type Scheduler struct {
	cron   *cron.Cron
	ledger *ledger.Store
	bot    *telegram.Client // nil when notifications are disabled
	every  time.Duration
	log    zerolog.Logger
}

func New(l *ledger.Store, bot *telegram.Client, every time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		ledger: l,
		bot:    bot,
		every:  every,
		log:    log.With().Str("component", "jobs").Logger(),
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.restoreTickets); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Dur("restore_every", s.every).Msg("scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) restoreTickets() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ids, err := s.ledger.RestoreDue(ctx, s.every)
	if err != nil {
		s.log.Error().Err(err).Msg("ticket restore sweep failed")
		return
	}
	if len(ids) == 0 {
		return
	}
	s.log.Info().Int("accounts", len(ids)).Msg("tickets restored")
	if s.bot == nil {
		return
	}
	for _, id := range ids {
		s.bot.NotifyRestore(ctx, id)
	}
}
