package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"

	"gorm.io/gorm"
)

// LifecycleState 软删除判断所需的最小字段集
type LifecycleState struct {
	ID        uint64
	OwnerID   uint64
	Deleted   bool
	DeletedAt *time.Time
	DeletedBy *uint64
}

// loadState ownerCol 为作者列（工作组取协调人）
func loadState(ctx context.Context, db *gorm.DB, m any, ownerCol string, id uint64) (*LifecycleState, error) {
	var st LifecycleState
	res := db.WithContext(ctx).Model(m).
		Select("id, COALESCE("+ownerCol+", 0) AS owner_id, deleted, deleted_at, deleted_by").
		Where("id = ?", id).
		Limit(1).
		Scan(&st)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &st, nil
}

// softDelete 仅在记录未删除时写入，并在同一事务内写 outbox；不做级联写
func softDelete(ctx context.Context, db *gorm.DB, m any, kind lifecycle.Kind, id, actorID uint64, at time.Time) (bool, error) {
	var changed bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(m).
			Where("id = ? AND deleted = ?", id, false).
			Updates(map[string]any{
				"deleted":    true,
				"deleted_at": at,
				"deleted_by": actorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertEvent(tx, model.EventSoftDeleted, kind, id, actorID, at)
	})
	return changed, err
}

// restore 清空单条记录的三个软删除字段，不触及子记录
func restore(ctx context.Context, db *gorm.DB, m any, kind lifecycle.Kind, id, actorID uint64, at time.Time) (bool, error) {
	var changed bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(m).
			Where("id = ? AND deleted = ?", id, true).
			Updates(map[string]any{
				"deleted":    false,
				"deleted_at": nil,
				"deleted_by": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return insertEvent(tx, model.EventRestored, kind, id, actorID, at)
	})
	return changed, err
}

// expiredIDs deleted_at 严格早于 cutoff 的记录
func expiredIDs(tx *gorm.DB, m any, cutoff time.Time) ([]uint64, error) {
	var ids []uint64
	err := tx.Model(m).
		Where("deleted = ? AND deleted_at < ?", true, cutoff).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func insertEvent(tx *gorm.DB, event string, kind lifecycle.Kind, id, actorID uint64, at time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"event":      event,
		"event_time": at.UTC().Format(time.RFC3339Nano),
		"kind":       kind.String(),
		"id":         id,
		"actor":      actorID,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	return tx.Create(&model.LifecycleEvent{
		EventType: event,
		Kind:      kind.String(),
		EntityID:  id,
		ActorID:   actorID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}

type keyCount struct {
	RefID uint64
	Total int64
}

// countByKey 按 key 分组计数，没有行的 key 不出现在结果里
func countByKey(q *gorm.DB, key string) (map[uint64]int64, error) {
	var rows []keyCount
	if err := q.Select(key + " AS ref_id, COUNT(*) AS total").Group(key).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		out[row.RefID] = row.Total
	}
	return out, nil
}
