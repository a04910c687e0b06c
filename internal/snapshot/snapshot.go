package snapshot

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"inspection-portal/internal/models"
)

// Service takes daily snapshots of the request pipeline
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new snapshot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// day truncates t to the UTC date
func day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// current builds a snapshot of today's state without saving it
func (s *Service) current() (*models.StatusSnapshot, error) {
	var rows []struct {
		Status models.RequestStatus
		Count  int64
	}
	if err := s.db.Model(&models.InspectionRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}

	var bal models.AdminBalance
	err := s.db.First(&bal, models.BalanceRowID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	snap := &models.StatusSnapshot{SnapshotAt: day(s.now()), Balance: bal.Balance}
	snap.SetCounts(counts)
	return snap, nil
}

// DetectChanges compares snap with the most recent earlier snapshot.
// It returns one line per changed figure.
func (s *Service) DetectChanges(snap *models.StatusSnapshot) ([]string, error) {
	var last models.StatusSnapshot
	err := s.db.Where("snapshot_at < ?", snap.SnapshotAt).
		Order("snapshot_at DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var changes []string
	for _, st := range models.AllStatuses {
		if before, after := last.Count(st), snap.Count(st); before != after {
			changes = append(changes, fmt.Sprintf("%s: %d -> %d", st, before, after))
		}
	}
	if last.Balance != snap.Balance {
		changes = append(changes, fmt.Sprintf("balance: %s -> %s",
			models.FormatAmount(last.Balance), models.FormatAmount(snap.Balance)))
	}
	return changes, nil
}

// CreateSnapshot records today's figures, replacing an earlier run from the same day
func (s *Service) CreateSnapshot() (*models.StatusSnapshot, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}

	changes, err := s.DetectChanges(snap)
	if err != nil {
		log.Printf("[Snapshot] failed to detect changes: %v", err)
	}
	if len(changes) > 0 {
		snap.HasChanged = true
		snap.ChangeNote = strings.Join(changes, "; ")
	}

	var existing models.StatusSnapshot
	err = s.db.Where("snapshot_at = ?", snap.SnapshotAt).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(snap).Error; err != nil {
			return nil, fmt.Errorf("failed to create snapshot: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		snap.ID = existing.ID
		snap.CreatedAt = existing.CreatedAt
		if err := s.db.Save(snap).Error; err != nil {
			return nil, fmt.Errorf("failed to update snapshot: %w", err)
		}
	}

	log.Printf("[Snapshot] date=%s changed=%v %s", snap.SnapshotAt.Format("2006-01-02"), snap.HasChanged, snap.ChangeNote)
	return snap, nil
}

// GetHistory returns snapshots, newest first
func (s *Service) GetHistory(limit int) ([]models.StatusSnapshot, error) {
	var snaps []models.StatusSnapshot
	query := s.db.Order("snapshot_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&snaps).Error; err != nil {
		return nil, err
	}
	return snaps, nil
}

// GetRecentChanges returns the latest request status changes across all requests
func (s *Service) GetRecentChanges(limit int) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	query := s.db.Order("changed_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&changes).Error; err != nil {
		return nil, err
	}
	return changes, nil
}
