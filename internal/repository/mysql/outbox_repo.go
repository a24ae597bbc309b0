package mysql

import (
	"context"

	"Jazz_Forum/internal/model"

	"gorm.io/gorm"
)

// MaxOutboxRetry 失败超过该次数后不再投递，留给人工处理
const MaxOutboxRetry = 5

type OutboxRepository struct {
	DB *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

// List 待投递及可重试的事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.LifecycleEvent, error) {
	var list []model.LifecycleEvent
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，计数+1
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.LifecycleEvent{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.LifecycleEvent{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
