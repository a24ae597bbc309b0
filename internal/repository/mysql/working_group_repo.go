package mysql

import (
	"context"
	"time"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkingGroupRepository struct {
	DB *gorm.DB
}

func NewWorkingGroupRepository(db *gorm.DB) *WorkingGroupRepository {
	return &WorkingGroupRepository{DB: db}
}

// Create 建组并让协调人以 coordinator 身份加入
func (r *WorkingGroupRepository) Create(ctx context.Context, g *model.WorkingGroup) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		if g.CoordinatorID == nil {
			return nil
		}
		return joinGroup(tx, &model.WorkingGroupMember{
			WorkingGroupID: g.ID,
			UserID:         *g.CoordinatorID,
			Role:           model.MemberRoleCoordinator,
		})
	})
}

func (r *WorkingGroupRepository) FindByID(ctx context.Context, id uint64) (*model.WorkingGroup, error) {
	var g model.WorkingGroup
	err := r.DB.WithContext(ctx).First(&g, "id = ? AND deleted = ?", id, false).Error
	return &g, err
}

func (r *WorkingGroupRepository) FindBySlug(ctx context.Context, slug string) (*model.WorkingGroup, error) {
	var g model.WorkingGroup
	err := r.DB.WithContext(ctx).First(&g, "slug = ? AND deleted = ?", slug, false).Error
	return &g, err
}

func (r *WorkingGroupRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.WorkingGroup{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

// FindLiveByIDs 过滤掉已删除的组
func (r *WorkingGroupRepository) FindLiveByIDs(ctx context.Context, ids []uint64) ([]model.WorkingGroup, error) {
	var list []model.WorkingGroup
	if len(ids) == 0 {
		return list, nil
	}
	err := r.DB.WithContext(ctx).
		Where("id IN ? AND deleted = ?", ids, false).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *WorkingGroupRepository) List(ctx context.Context, offset, limit int) ([]model.WorkingGroup, error) {
	var list []model.WorkingGroup
	err := r.DB.WithContext(ctx).
		Where("deleted = ? AND is_active = ?", false, true).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *WorkingGroupRepository) Join(ctx context.Context, m *model.WorkingGroupMember) error {
	return joinGroup(r.DB.WithContext(ctx), m)
}

func (r *WorkingGroupRepository) Leave(ctx context.Context, groupID, userID uint64) error {
	return r.DB.WithContext(ctx).
		Where("working_group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.WorkingGroupMember{}).Error
}

// MemberGroupIDs 用户加入的全部工作组
func (r *WorkingGroupRepository) MemberGroupIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.WorkingGroupMember{}).
		Where("user_id = ?", userID).
		Pluck("working_group_id", &ids).Error
	return ids, err
}

// 幂等加入：(working_group_id, user_id) 已存在则忽略
func joinGroup(tx *gorm.DB, m *model.WorkingGroupMember) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "working_group_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(m).Error
}

/*
软删除生命周期
*/

func (r *WorkingGroupRepository) LoadState(ctx context.Context, id uint64) (*LifecycleState, error) {
	return loadState(ctx, r.DB, &model.WorkingGroup{}, "coordinator_id", id)
}

func (r *WorkingGroupRepository) SoftDelete(ctx context.Context, id, actorID uint64, at time.Time) (bool, error) {
	return softDelete(ctx, r.DB, &model.WorkingGroup{}, lifecycle.KindWorkingGroup, id, actorID, at)
}

func (r *WorkingGroupRepository) Restore(ctx context.Context, id, actorID uint64, at time.Time) (bool, error) {
	return restore(ctx, r.DB, &model.WorkingGroup{}, lifecycle.KindWorkingGroup, id, actorID, at)
}

func (r *WorkingGroupRepository) ListDeleted(ctx context.Context) ([]model.WorkingGroup, error) {
	var list []model.WorkingGroup
	err := r.DB.WithContext(ctx).
		Where("deleted = ?", true).
		Order("deleted_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// CountThreads 各组下未删除的帖子数，一次分组查询
func (r *WorkingGroupRepository) CountThreads(ctx context.Context, groupIDs []uint64) (map[uint64]int64, error) {
	if len(groupIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	return countByKey(r.DB.WithContext(ctx).Model(&model.Thread{}).
		Joins("JOIN thread_groups tg ON tg.thread_id = threads.id").
		Where("tg.working_group_id IN ? AND threads.deleted = ?", groupIDs, false),
		"tg.working_group_id")
}

// CountPosts 各组下未删除帖子中未删除的回复数
func (r *WorkingGroupRepository) CountPosts(ctx context.Context, groupIDs []uint64) (map[uint64]int64, error) {
	if len(groupIDs) == 0 {
		return map[uint64]int64{}, nil
	}
	return countByKey(r.DB.WithContext(ctx).Model(&model.Post{}).
		Joins("JOIN threads t ON t.id = posts.thread_id").
		Joins("JOIN thread_groups tg ON tg.thread_id = t.id").
		Where("tg.working_group_id IN ? AND t.deleted = ? AND posts.deleted = ?", groupIDs, false, false),
		"tg.working_group_id")
}

// PurgeExpired 永久删除过期工作组及其成员、帖子关联。
// 仍关联其他工作组的帖子保留；只属于被清理组的帖子随组一起清理，否则失去关联后会变成公共帖
func (r *WorkingGroupRepository) PurgeExpired(ctx context.Context, cutoff, now time.Time) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ids, err = expiredIDs(tx, &model.WorkingGroup{}, cutoff); err != nil || len(ids) == 0 {
			return err
		}
		orphans, err := orphanedThreadIDs(tx, ids)
		if err != nil {
			return err
		}
		if err = purgeThreads(tx, orphans, now); err != nil {
			return err
		}
		if err = tx.Where("working_group_id IN ?", ids).Delete(&model.WorkingGroupMember{}).Error; err != nil {
			return err
		}
		if err = tx.Where("working_group_id IN ?", ids).Delete(&model.ThreadGroup{}).Error; err != nil {
			return err
		}
		if err = tx.Where("id IN ? AND deleted = ?", ids, true).Delete(&model.WorkingGroup{}).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err = insertEvent(tx, model.EventPurged, lifecycle.KindWorkingGroup, id, 0, now); err != nil {
				return err
			}
		}
		return nil
	})
	return ids, err
}

// orphanedThreadIDs 只关联到 groupIDs 中工作组的帖子
func orphanedThreadIDs(tx *gorm.DB, groupIDs []uint64) ([]uint64, error) {
	var ids []uint64
	err := tx.Model(&model.ThreadGroup{}).
		Distinct("thread_id").
		Where("working_group_id IN ?", groupIDs).
		Where("NOT EXISTS (SELECT 1 FROM thread_groups other WHERE other.thread_id = thread_groups.thread_id AND other.working_group_id NOT IN ?)", groupIDs).
		Order("thread_id ASC").
		Pluck("thread_id", &ids).Error
	return ids, err
}
