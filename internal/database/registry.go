package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
)

type propertyRepo struct {
	db *gorm.DB
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *propertyRepo) Get(ctx context.Context, id uint) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *propertyRepo) ListByOwner(ctx context.Context, ownerID uint) ([]models.Property, error) {
	var props []models.Property
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC, id DESC").Find(&props).Error
	return props, translate(err)
}

func (r *propertyRepo) List(ctx context.Context, query string, limit int) ([]models.Property, error) {
	q := r.db.WithContext(ctx).Model(&models.Property{})
	if query != "" {
		p := likePattern(query)
		q = q.Where("(LOWER(location) LIKE ? OR LOWER(type) LIKE ?)", p, p)
	}
	var props []models.Property
	err := applyLimit(q, limit).Order("id ASC").Find(&props).Error
	return props, translate(err)
}

func (r *propertyRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Property{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *propertyRepo) CountByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, translate(err)
}

type messageRepo struct {
	db *gorm.DB
}

func (r *messageRepo) Create(ctx context.Context, m *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *messageRepo) Get(ctx context.Context, id uint) (*models.Message, error) {
	var m models.Message
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *messageRepo) Inbox(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).Where("recipient_id = ?", userID).Order("sent_at DESC, id DESC").Find(&msgs).Error
	return msgs, translate(err)
}

func (r *messageRepo) Sent(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).Where("sender_id = ?", userID).Order("sent_at DESC, id DESC").Find(&msgs).Error
	return msgs, translate(err)
}

func (r *messageRepo) MarkRead(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Update("is_read", true).Error)
}

func (r *messageRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, translate(err)
}

func (r *messageRepo) List(ctx context.Context, query string, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Model(&models.Message{})
	if query != "" {
		p := likePattern(query)
		q = q.Where("(LOWER(subject) LIKE ? OR LOWER(body) LIKE ?)", p, p)
	}
	var msgs []models.Message
	err := applyLimit(q, limit).Order("sent_at DESC, id DESC").Find(&msgs).Error
	return msgs, translate(err)
}

func (r *messageRepo) DeleteByUser(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Delete(&models.Message{}).Error)
}

type complaintRepo struct {
	db *gorm.DB
}

func (r *complaintRepo) Create(ctx context.Context, c *models.Complaint) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *complaintRepo) Get(ctx context.Context, id uint) (*models.Complaint, error) {
	var c models.Complaint
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *complaintRepo) List(ctx context.Context, resolved *bool, limit int) ([]models.Complaint, error) {
	q := r.db.WithContext(ctx).Model(&models.Complaint{})
	if resolved != nil {
		q = q.Where("resolved = ?", *resolved)
	}
	var cs []models.Complaint
	err := applyLimit(q, limit).Order("created_at DESC, id DESC").Find(&cs).Error
	return cs, translate(err)
}

func (r *complaintRepo) Resolve(ctx context.Context, id uint, response string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Complaint{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]interface{}{
			"resolved":       true,
			"admin_response": response,
			"resolved_at":    &at,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}

type paymentRepo struct {
	db *gorm.DB
}

func (r *paymentRepo) Create(ctx context.Context, p *models.Payment) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *paymentRepo) GetByRequest(ctx context.Context, requestID uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("id ASC").First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *paymentRepo) ListByPayer(ctx context.Context, payerID uint) ([]models.Payment, error) {
	var ps []models.Payment
	err := r.db.WithContext(ctx).Where("payer_id = ?", payerID).Order("created_at DESC, id DESC").Find(&ps).Error
	return ps, translate(err)
}

func (r *paymentRepo) SumByPayer(ctx context.Context, payerID uint) (int64, error) {
	var sum int64
	row := r.db.WithContext(ctx).Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("payer_id = ?", payerID).
		Row()
	if err := row.Scan(&sum); err != nil {
		return 0, translate(err)
	}
	return sum, nil
}

func (r *paymentRepo) List(ctx context.Context, limit int) ([]models.Payment, error) {
	var ps []models.Payment
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	err := applyLimit(q, limit).Find(&ps).Error
	return ps, translate(err)
}

type deleteLogRepo struct {
	db *gorm.DB
}

func (r *deleteLogRepo) Create(ctx context.Context, l *models.DeleteLog) error {
	return translate(r.db.WithContext(ctx).Create(l).Error)
}

func (r *deleteLogRepo) Recent(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	q := r.db.WithContext(ctx).Order("deleted_at DESC, id DESC")
	err := applyLimit(q, limit).Find(&logs).Error
	return logs, translate(err)
}

func (r *deleteLogRepo) CountByReason(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Reason string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Reason] = row.Count
	}
	return counts, nil
}
