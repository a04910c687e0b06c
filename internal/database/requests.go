package database

import (
	"context"

	"gorm.io/gorm"

	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
)

type requestRepo struct {
	db *gorm.DB
}

func (r *requestRepo) Create(ctx context.Context, req *models.InspectionRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

func (r *requestRepo) Get(ctx context.Context, id uint) (*models.InspectionRequest, error) {
	var req models.InspectionRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *requestRepo) filtered(ctx context.Context, f repository.RequestFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.InspectionRequest{})
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.InspectorID != 0 {
		q = q.Where("inspector_id = ?", f.InspectorID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("(LOWER(building_location) LIKE ? OR LOWER(req_type) LIKE ?)", p, p)
	}
	return q
}

func (r *requestRepo) List(ctx context.Context, f repository.RequestFilter) ([]models.InspectionRequest, error) {
	var reqs []models.InspectionRequest
	err := applyLimit(r.filtered(ctx, f), f.Limit).Order("created_at DESC, id DESC").Find(&reqs).Error
	return reqs, translate(err)
}

func (r *requestRepo) CountByStatus(ctx context.Context, f repository.RequestFilter) (map[models.RequestStatus]int64, error) {
	var rows []struct {
		Status models.RequestStatus
		Count  int64
	}
	err := r.filtered(ctx, f).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[models.RequestStatus]int64, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *requestRepo) Transition(ctx context.Context, id uint, from []models.RequestStatus, to models.RequestStatus, updates map[string]interface{}) error {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}

	res := r.db.WithContext(ctx).Model(&models.InspectionRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrConflict
	}
	return nil
}

type reportRepo struct {
	db *gorm.DB
}

func (r *reportRepo) Create(ctx context.Context, rep *models.InspectionReport) error {
	return translate(r.db.WithContext(ctx).Create(rep).Error)
}

func (r *reportRepo) GetByRequest(ctx context.Context, requestID uint) (*models.InspectionReport, error) {
	var rep models.InspectionReport
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&rep).Error; err != nil {
		return nil, translate(err)
	}
	return &rep, nil
}

func (r *reportRepo) ListByInspector(ctx context.Context, inspectorID uint) ([]models.InspectionReport, error) {
	var reps []models.InspectionReport
	err := r.db.WithContext(ctx).Where("inspector_id = ?", inspectorID).Order("created_at DESC").Find(&reps).Error
	return reps, translate(err)
}

type historyRepo struct {
	db *gorm.DB
}

func (r *historyRepo) Append(ctx context.Context, c *models.StatusChange) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *historyRepo) ListByRequest(ctx context.Context, requestID uint, limit int) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	q := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("changed_at ASC, id ASC")
	err := applyLimit(q, limit).Find(&changes).Error
	return changes, translate(err)
}

func (r *historyRepo) Recent(ctx context.Context, limit int) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	q := r.db.WithContext(ctx).Order("changed_at DESC, id DESC")
	err := applyLimit(q, limit).Find(&changes).Error
	return changes, translate(err)
}
