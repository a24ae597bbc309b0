package mysql

import (
	"context"
	"time"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{DB: db}
}

// Create 写回复并更新帖子回复数
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&model.Thread{}).
			Where("id = ?", post.ThreadID).
			Updates(map[string]any{
				"reply_count": gorm.Expr("reply_count + 1"),
				"updated_at":  post.CreatedAt,
			}).Error
	})
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ? AND deleted = ?", id, false).Error
	return &post, err
}

// ListByThread 按发布时间正序分页
func (r *PostRepository) ListByThread(ctx context.Context, threadID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Where("thread_id = ? AND deleted = ?", threadID, false).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// Edit 只允许作者修改，记录编辑信息
func (r *PostRepository) Edit(ctx context.Context, id, editorID uint64, content string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND author_id = ? AND deleted = ?", id, editorID, false).
		Updates(map[string]any{
			"content":    content,
			"edited_at":  at,
			"edited_by":  editorID,
			"edit_count": gorm.Expr("edit_count + 1"),
		})
	return res.RowsAffected > 0, res.Error
}

// CountLive 对账用：帖子下未删除回复数
func (r *PostRepository) CountLive(ctx context.Context, threadID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("thread_id = ? AND deleted = ?", threadID, false).
		Count(&n).Error
	return n, err
}

/*
软删除生命周期
*/

func (r *PostRepository) LoadState(ctx context.Context, id uint64) (*LifecycleState, error) {
	return loadState(ctx, r.DB, &model.Post{}, "author_id", id)
}

func (r *PostRepository) SoftDelete(ctx context.Context, id, actorID uint64, at time.Time) (bool, error) {
	return softDelete(ctx, r.DB, &model.Post{}, lifecycle.KindPost, id, actorID, at)
}

func (r *PostRepository) Restore(ctx context.Context, id, actorID uint64, at time.Time) (bool, error) {
	return restore(ctx, r.DB, &model.Post{}, lifecycle.KindPost, id, actorID, at)
}

func (r *PostRepository) ListDeleted(ctx context.Context) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Where("deleted = ?", true).
		Order("deleted_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *PostRepository) PurgeExpired(ctx context.Context, cutoff, now time.Time) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if ids, err = expiredIDs(tx, &model.Post{}, cutoff); err != nil || len(ids) == 0 {
			return err
		}
		if err = tx.Where("id IN ? AND deleted = ?", ids, true).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err = insertEvent(tx, model.EventPurged, lifecycle.KindPost, id, 0, now); err != nil {
				return err
			}
		}
		return nil
	})
	return ids, err
}
