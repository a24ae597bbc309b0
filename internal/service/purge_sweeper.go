package service

import (
	"context"
	"time"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/repository/mysql"
	"Jazz_Forum/internal/repository/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	purgeLockName = "lifecycle:purge"
	purgeLockTTL  = 10 * time.Minute
)

// PurgeSweeper 定期提醒即将过期的记录，并永久删除超过保留期的记录
type PurgeSweeper struct {
	lifecycle *LifecycleService
	users     *mysql.UserRepository
	lock      *redis.DistLock
	warnings  *redis.WarningRepository
	notifier  Notifier
	interval  time.Duration
	log       *zap.Logger
}

func NewPurgeSweeper(svc *LifecycleService, lock *redis.DistLock, warnings *redis.WarningRepository,
	notifier Notifier, interval time.Duration, log *zap.Logger) *PurgeSweeper {
	return &PurgeSweeper{
		lifecycle: svc,
		users:     svc.users,
		lock:      lock,
		warnings:  warnings,
		notifier:  notifier,
		interval:  interval,
		log:       log,
	}
}

func (p *PurgeSweeper) Run(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := p.SweepOnce(ctx); err != nil {
				p.log.Error("purge sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce 未拿到锁时返回空报告
func (p *PurgeSweeper) SweepOnce(ctx context.Context) (PurgeReport, error) {
	token := uuid.NewString()
	ok, err := p.lock.Acquire(ctx, purgeLockName, token, purgeLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		p.log.Debug("purge sweep skipped, lock held elsewhere")
		return PurgeReport{}, nil
	}
	defer func() {
		if err := p.lock.Release(context.Background(), purgeLockName, token); err != nil {
			p.log.Warn("purge lock release failed", zap.Error(err))
		}
	}()

	p.warn(ctx)
	return p.lifecycle.PurgeExpired(ctx)
}

// warn 每条记录每次删除只提醒一次；失败撤销标记，下一轮重试
func (p *PurgeSweeper) warn(ctx context.Context) {
	items, err := p.lifecycle.ExpiringSoon(ctx)
	if err != nil {
		p.log.Error("load expiring items failed", zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.DeletedBy)
	}
	users, err := p.users.FindByIDs(ctx, ids)
	if err != nil {
		p.log.Error("load deleters failed", zap.Error(err))
		return
	}
	for _, it := range items {
		to, ok := users[it.DeletedBy]
		if !ok || to.Email == "" {
			continue
		}
		first, err := p.warnings.MarkWarned(ctx, it.Kind.String(), it.ID, it.DeletedAt, lifecycle.RetentionWindow)
		if err != nil {
			p.log.Warn("warning ledger unavailable", zap.Error(err))
			return
		}
		if !first {
			continue
		}
		if err = p.notifier.NotifyExpiring(ctx, to, it); err != nil {
			p.log.Warn("expiry warning failed",
				zap.String("kind", it.Kind.String()), zap.Uint64("id", it.ID), zap.Error(err))
			_ = p.warnings.Forget(ctx, it.Kind.String(), it.ID, it.DeletedAt)
		}
	}
}
