package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"inspection-portal/internal/models"
	"inspection-portal/internal/repository"
)

type ledgerRepo struct {
	db *gorm.DB
}

func (r *ledgerRepo) Append(ctx context.Context, e *models.LedgerEntry) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *ledgerRepo) Sum(ctx context.Context) (int64, error) {
	var sum int64
	row := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&sum); err != nil {
		return 0, translate(err)
	}
	return sum, nil
}

func (r *ledgerRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Count(&count).Error
	return count, translate(err)
}

func (r *ledgerRepo) GetBalance(ctx context.Context) (*models.AdminBalance, error) {
	var b models.AdminBalance
	if err := r.db.WithContext(ctx).First(&b, models.BalanceRowID).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *ledgerRepo) EnsureBalance(ctx context.Context) (*models.AdminBalance, bool, error) {
	b, err := r.GetBalance(ctx)
	if err == nil {
		return b, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	b = &models.AdminBalance{ID: models.BalanceRowID}
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		err = translate(err)
		if errors.Is(err, repository.ErrDuplicate) {
			// Created concurrently by another caller
			b, err = r.GetBalance(ctx)
			return b, false, err
		}
		return nil, false, err
	}
	return b, true, nil
}

func (r *ledgerRepo) AddToBalance(ctx context.Context, amount int64) error {
	res := r.db.WithContext(ctx).Model(&models.AdminBalance{}).
		Where("id = ?", models.BalanceRowID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Create(&models.AdminBalance{
		ID:      models.BalanceRowID,
		Balance: amount,
	}).Error)
}

func (r *ledgerRepo) SetBalance(ctx context.Context, balance int64) error {
	if _, _, err := r.EnsureBalance(ctx); err != nil {
		return err
	}
	return translate(r.db.WithContext(ctx).Model(&models.AdminBalance{}).
		Where("id = ?", models.BalanceRowID).
		Update("balance", balance).Error)
}
