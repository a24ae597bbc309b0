package service

import (
	"context"
	"time"

	"Jazz_Forum/internal/repository/mysql"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReplyCountReconciler 回复数对账：软删除回复不回写帖子计数，由此定期校正
type ReplyCountReconciler struct {
	threads   *mysql.ThreadRepository
	posts     *mysql.PostRepository
	batchSize int
	interval  time.Duration
	log       *zap.Logger
}

func NewReplyCountReconciler(db *gorm.DB, interval time.Duration, log *zap.Logger) *ReplyCountReconciler {
	return &ReplyCountReconciler{
		threads:   mysql.NewThreadRepository(db),
		posts:     mysql.NewPostRepository(db),
		batchSize: 500,
		interval:  interval,
		log:       log,
	}
}

// Run 对账定时任务启动器
func (r *ReplyCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce 按 id 分批扫完全表，返回修正的帖子数
func (r *ReplyCountReconciler) reconcileOnce(ctx context.Context) int {
	fixed := 0
	var lastID uint64
	for {
		rows, next, err := r.threads.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			r.log.Error("reconcile list failed", zap.Error(err))
			return fixed
		}
		if len(rows) == 0 {
			return fixed
		}
		for _, row := range rows {
			// 先在回复表查询真实值，再和帖子表比对更新
			live, err := r.posts.CountLive(ctx, row.ID)
			if err != nil {
				continue
			}
			if live == row.ReplyCount {
				continue
			}
			if err = r.threads.SetReplyCount(ctx, row.ID, live); err != nil {
				r.log.Warn("reply count update failed", zap.Uint64("thread", row.ID), zap.Error(err))
				continue
			}
			fixed++
		}
		lastID = next
		if ctx.Err() != nil {
			return fixed
		}
	}
}
