package cleanup

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"inspection-portal/internal/models"
)

// Service purges expired sessions and reports on deletions
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	MaxDeletionCount int  // Safety limit on sessions deleted in one run
	DryRun           bool // Only log what would be deleted
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxDeletionCount: 100000,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount  int64     `json:"target_count"`
	DeletedCount int64     `json:"deleted_count"`
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// CountExpiredSessions counts sessions past their expiry
func (s *Service) CountExpiredSessions() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Session{}).Where("expires_at <= ?", s.now()).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count expired sessions: %w", err)
	}
	return count, nil
}

// PurgeSessions deletes expired sessions
func (s *Service) PurgeSessions(config CleanupConfig) (*CleanupResult, error) {
	now := s.now()
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: now,
	}

	target, err := s.CountExpiredSessions()
	if err != nil {
		return nil, err
	}
	result.TargetCount = target
	if target == 0 {
		return result, nil
	}

	if config.MaxDeletionCount > 0 && target > int64(config.MaxDeletionCount) {
		return nil, fmt.Errorf("safety check failed: %d sessions exceed max deletion limit of %d",
			target, config.MaxDeletionCount)
	}

	if config.DryRun {
		log.Printf("[Cleanup] [DRY-RUN] would delete %d expired sessions", target)
		result.DeletedCount = target
		return result, nil
	}

	res := s.db.Where("expires_at <= ?", now).Delete(&models.Session{})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete expired sessions: %w", res.Error)
	}
	result.DeletedCount = res.RowsAffected

	log.Printf("[Cleanup] purged %d/%d expired sessions", result.DeletedCount, result.TargetCount)
	return result, nil
}

// GetDeleteStats returns statistics about deleted records
func (s *Service) GetDeleteStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalDeleted int64
	if err := s.db.Model(&models.DeleteLog{}).Count(&totalDeleted).Error; err != nil {
		return nil, err
	}
	stats["total_deleted"] = totalDeleted

	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := s.db.Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}
	reasonMap := make(map[string]int64)
	for _, rc := range reasonCounts {
		reasonMap[rc.Reason] = rc.Count
	}
	stats["by_reason"] = reasonMap

	var recentDeleted int64
	thirtyDaysAgo := s.now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.DeleteLog{}).
		Where("deleted_at >= ?", thirtyDaysAgo).
		Count(&recentDeleted).Error; err != nil {
		return nil, err
	}
	stats["deleted_last_30_days"] = recentDeleted

	expired, err := s.CountExpiredSessions()
	if err != nil {
		return nil, err
	}
	stats["expired_sessions"] = expired

	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := s.db.Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
