package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"inspection-portal/internal/cleanup"
	"inspection-portal/internal/config"
	"inspection-portal/internal/database"
	"inspection-portal/internal/ledger"
	"inspection-portal/internal/ratelimit"
	"inspection-portal/internal/search"
	"inspection-portal/internal/snapshot"
)

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	db        *database.GormDB
	cleanup   *cleanup.Service
	snapshot  *snapshot.Service
	ledger    *ledger.Service
	search    *search.SearchClient
	limiter   *ratelimit.RateLimiter
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(db *database.GormDB, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		db:       db,
		cleanup:  cleanup.NewService(db.DB()),
		snapshot: snapshot.NewService(db.DB()),
		ledger:   ledger.NewService(db.Store()),
		config:   cfg,
	}
}

// SetSearchClient enables the reindex job
func (s *Scheduler) SetSearchClient(c *search.SearchClient) {
	s.search = c
}

// SetRateLimiter lets the purge job prune idle limiter clients
func (s *Scheduler) SetRateLimiter(rl *ratelimit.RateLimiter) {
	s.limiter = rl
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.Enabled {
		log.Println("Scheduler: disabled in configuration")
		return nil
	}
	if err := s.register(); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with %d jobs (reconcile at %s)", len(s.cron.Entries()), s.config.Scheduler.ReconcileTime)
	return nil
}

func (s *Scheduler) register() error {
	purgeSpec := "@every " + strings.TrimSpace(s.config.Scheduler.SessionPurgeInterval)
	if _, err := s.cron.AddFunc(purgeSpec, s.runSessionPurge); err != nil {
		return fmt.Errorf("invalid session purge interval %q: %w", s.config.Scheduler.SessionPurgeInterval, err)
	}

	dailySpec := s.parseDailyRunTime(s.config.Scheduler.ReconcileTime)
	if _, err := s.cron.AddFunc(dailySpec, func() {
		log.Println("Scheduler: Starting daily ledger job...")
		if err := s.runDaily(); err != nil {
			log.Printf("Scheduler: Daily job failed: %v", err)
		} else {
			log.Println("Scheduler: Daily job completed successfully")
		}
	}); err != nil {
		return err
	}

	if s.search != nil && s.config.Scheduler.ReindexTime != "" {
		reindexSpec := s.parseDailyRunTime(s.config.Scheduler.ReindexTime)
		if _, err := s.cron.AddFunc(reindexSpec, func() {
			if err := search.Reindex(context.Background(), s.db.Store(), s.search); err != nil {
				log.Printf("Scheduler: Reindex failed: %v", err)
			}
		}); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

func (s *Scheduler) runSessionPurge() {
	result, err := s.cleanup.PurgeSessions(cleanup.DefaultCleanupConfig())
	if err != nil {
		log.Printf("Scheduler: Session purge failed: %v", err)
		return
	}
	if s.limiter != nil {
		s.limiter.Prune()
	}
	if result.DeletedCount > 0 {
		log.Printf("Scheduler: Purged %d expired sessions", result.DeletedCount)
	}
}

// runDaily reconciles the balance and records the daily snapshot
func (s *Scheduler) runDaily() error {
	result, err := s.ledger.Reconcile(context.Background())
	if err != nil {
		return err
	}
	if result.Repaired {
		log.Printf("Scheduler: Balance repaired from %d to %d", result.Previous, result.Ledger)
	}

	if _, err := s.snapshot.CreateSnapshot(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// RunNow immediately executes the daily job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting daily job...")
	s.runSessionPurge()
	return s.runDaily()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
