package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/wdzeng/shopback-bot/internal/metrics"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// maxRunHistory bounds the in-memory run records kept by the scheduler.
const maxRunHistory = 50

// Scheduler periodically runs the follow-by-keywords flow.
type Scheduler struct {
	cron     *cron.Cron
	bot      *Bot
	keywords []string
	limit    int
	log      *slog.Logger

	mu   sync.Mutex
	runs []domain.RunRecord
}

// NewScheduler creates a Scheduler that follows offers matching keywords
// every interval.
func NewScheduler(
	b *Bot,
	keywords []string,
	limit int,
	interval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:     c,
		bot:      b,
		keywords: keywords,
		limit:    limit,
		log:      log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), s.runFollow); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled follow runs.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "keywords", s.keywords)
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Runs returns the recorded run history, most recent last.
func (s *Scheduler) Runs() []domain.RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}

func (s *Scheduler) runFollow() {
	ctx := context.Background()

	record := domain.RunRecord{
		ID:        uuid.NewString(),
		Keywords:  s.keywords,
		StartedAt: time.Now(),
	}
	metrics.ScheduledRunsTotal.Inc()
	s.log.Info("scheduled follow run starting", "run_id", record.ID)

	result, err := s.bot.FollowOffersByKeywords(ctx, s.keywords, s.limit, nil)
	completed := time.Now()
	record.CompletedAt = &completed

	if err != nil {
		metrics.ScheduledRunErrorsTotal.Inc()
		record.ErrorText = err.Error()
		s.log.Error("scheduled follow run failed", "run_id", record.ID, "error", err)
	} else {
		record.OffersSeen = len(result.Offers)
		for _, newly := range result.NewlyFollowed {
			if newly {
				record.NewFollows++
			}
		}
		s.log.Info("scheduled follow run finished",
			"run_id", record.ID,
			"offers_seen", record.OffersSeen,
			"new_follows", record.NewFollows,
		)
	}

	s.record(record)
}

func (s *Scheduler) record(r domain.RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, r)
	if len(s.runs) > maxRunHistory {
		s.runs = s.runs[len(s.runs)-maxRunHistory:]
	}
}
