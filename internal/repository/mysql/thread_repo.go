package mysql

import (
	"context"
	"time"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"

	"gorm.io/gorm"
)

// visibleThread 未删除，且为公共帖或至少有一个所属工作组未删除
const visibleThread = `threads.deleted = ? AND (
	NOT EXISTS (SELECT 1 FROM thread_groups tg WHERE tg.thread_id = threads.id)
	OR EXISTS (
		SELECT 1 FROM thread_groups tg
		JOIN working_groups wg ON wg.id = tg.working_group_id
		WHERE tg.thread_id = threads.id AND wg.deleted = ?
	))`

type ThreadRepository struct {
	DB *gorm.DB
}

func NewThreadRepository(db *gorm.DB) *ThreadRepository {
	return &ThreadRepository{DB: db}
}

type ThreadListParams struct {
	WorkingGroupID uint64 // 0 表示不按组过滤
	Offset         int
	Limit          int
}

// Create 写帖子并写入工作组关联
func (r *ThreadRepository) Create(ctx context.Context, t *model.Thread) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		for _, gid := range t.WorkingGroupIDs {
			if err := tx.Create(&model.ThreadGroup{ThreadID: t.ID, WorkingGroupID: gid}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// FindVisible 默认读路径
func (r *ThreadRepository) FindVisible(ctx context.Context, id uint64) (*model.Thread, error) {
	var t model.Thread
	err := r.DB.WithContext(ctx).
		Where("threads.id = ?", id).
		Where(visibleThread, false, false).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	if t.WorkingGroupIDs, err = r.GroupIDs(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

// List 置顶优先，其余按更新时间倒序
func (r *ThreadRepository) List(ctx context.Context, p ThreadListParams) ([]model.Thread, error) {
	var list []model.Thread
	q := r.DB.WithContext(ctx).Model(&model.Thread{}).Where(visibleThread, false, false)
	if p.WorkingGroupID > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM thread_groups f WHERE f.thread_id = threads.id AND f.working_group_id = ?)", p.WorkingGroupID)
	}
	err := q.Order("threads.pinned DESC, threads.updated_at DESC, threads.id DESC").
		Offset(p.Offset).
		Limit(p.Limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	if err = r.attachGroupIDs(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ThreadRepository) GroupIDs(ctx context.Context, threadID uint64) ([]uint64, error) {
	ids := []uint64{}
	err := r.DB.WithContext(ctx).Model(&model.ThreadGroup{}).
		Where("thread_id = ?", threadID).
		Order("working_group_id ASC").
		Pluck("working_group_id", &ids).Error
	return ids, err
}

func (r *ThreadRepository) attachGroupIDs(ctx context.Context, list []model.Thread) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uint64, len(list))
	for i := range list {
		ids[i] = list[i].ID
		list[i].WorkingGroupIDs = []uint64{}
	}
	var links []model.ThreadGroup
	if err := r.DB.WithContext(ctx).
		Where("thread_id IN ?", ids).
		Order("working_group_id ASC").
		Find(&links).Error; err != nil {
		return err
	}
	idx := make(map[uint64]int, len(list))
	for i := range list {
		idx[list[i].ID] = i
	}
	for _, l := range links {
		i := idx[l.ThreadID]
		list[i].WorkingGroupIDs = append(list[i].WorkingGroupIDs, l.WorkingGroupID)
	}
	return nil
}

func (r *ThreadRepository) IncrementViews(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Thread{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *ThreadRepository) UpdateStatus(ctx context.Context, id uint64, status string) error {
	return r.DB.WithContext(ctx).Model(&model.Thread{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("status", status).Error
}

func (r *ThreadRepository) SetPinned(ctx context.Context, id uint64, pinned bool) error {
	return r.DB.WithContext(ctx).Model(&model.Thread{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("pinned", pinned).Error
}

/*
软删除生命周期
*/

func (r *ThreadRepository) LoadState(ctx context.Context, id uint64) (*LifecycleState, error) {
	return loadState(ctx, r.DB, &model.Thread{}, "author_id", id)
}

func (r *ThreadRepository) SoftDelete(ctx context.Context, id, actorID uint64, at time.Time) (bool, error) {
	return softDelete(ctx, r.DB, &model.Thread{}, lifecycle.KindThread, id, actorID, at)
}

func (r *ThreadRepository) Restore(ctx context.Context, id, actorID uint64, at time.Time) (bool, error) {
	return restore(ctx, r.DB, &model.Thread{}, lifecycle.KindThread, id, actorID, at)
}

func (r *ThreadRepository) ListDeleted(ctx context.Context) ([]model.Thread, error) {
	var list []model.Thread
	err := r.DB.WithContext(ctx).
		Where("deleted = ?", true).
		Order("deleted_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	if err = r.attachGroupIDs(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// FindTitles 回收站中回复所属帖子的标题，包含已删除的帖子
func (r *ThreadRepository) FindTitles(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID    uint64
		Title string
	}
	if err := r.DB.WithContext(ctx).Model(&model.Thread{}).
		Select("id, title").
		Where("id IN ?", ids).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Title
	}
	return out, nil
}

// CountPosts 各帖子下未删除的回复数
func (r *ThreadRepository) CountPosts(ctx context.Context, threadIDs []uint64) (map[uint64]int64, error) {
	if len(threadIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	return countByKey(r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("thread_id IN ? AND deleted = ?", threadIDs, false),
		"thread_id")
}

// PurgeExpired 永久删除过期帖子及其全部回复和工作组关联
func (r *ThreadRepository) PurgeExpired(ctx context.Context, cutoff, now time.Time) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ids, err = expiredIDs(tx, &model.Thread{}, cutoff); err != nil || len(ids) == 0 {
			return err
		}
		return purgeThreads(tx, ids, now)
	})
	return ids, err
}

// purgeThreads 物理删除帖子、回复和关联，并为每个帖子写 purged 事件
func purgeThreads(tx *gorm.DB, ids []uint64, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("thread_id IN ?", ids).Delete(&model.Post{}).Error; err != nil {
		return err
	}
	if err := tx.Where("thread_id IN ?", ids).Delete(&model.ThreadGroup{}).Error; err != nil {
		return err
	}
	if err := tx.Where("id IN ?", ids).Delete(&model.Thread{}).Error; err != nil {
		return err
	}
	for _, id := range ids {
		if err := insertEvent(tx, model.EventPurged, lifecycle.KindThread, id, 0, now); err != nil {
			return err
		}
	}
	return nil
}

/*
回复数对账
*/

type ReplyCountRow struct {
	ID         uint64
	ReplyCount int64
}

// ReconcileList 按 id 升序批量读取帖子当前的回复计数
func (r *ThreadRepository) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]ReplyCountRow, uint64, error) {
	var list []ReplyCountRow
	if err := r.DB.WithContext(ctx).Model(&model.Thread{}).
		Select("id", "reply_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Scan(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

func (r *ThreadRepository) SetReplyCount(ctx context.Context, id uint64, n int64) error {
	return r.DB.WithContext(ctx).Model(&model.Thread{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", n).Error
}
