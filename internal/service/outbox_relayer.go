package service

import (
	"context"
	"time"

	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/pkg"
	"Jazz_Forum/internal/repository/mysql"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Sender func(ctx context.Context, ev *model.LifecycleEvent) error

// OutboxRelayer 从 outbox 表读取生命周期事件并投递
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, interval time.Duration, log *zap.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      mysql.NewOutboxRepository(db),
		batchSize: 200,
		interval:  interval,
		sender:    sender,
		log:       log,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 返回成功投递的条数
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ev := rows[i]
		if err = r.sender(ctx, &ev); err != nil {
			r.log.Warn("outbox send failed", zap.Uint64("id", ev.ID), zap.Int("retry", ev.Retry), zap.Error(err))
			if err = r.repo.RetryUpdate(ctx, ev.ID); err != nil {
				r.log.Error("outbox retry update failed", zap.Uint64("id", ev.ID), zap.Error(err))
			}
			continue
		}
		if err = r.repo.SuccessUpdate(ctx, ev.ID); err != nil {
			r.log.Error("outbox success update failed", zap.Uint64("id", ev.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// KafkaSender 以 kind:id 作为分区键
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ev *model.LifecycleEvent) error {
		return p.Send(ctx, pkg.EntityKey(ev.Kind, ev.EntityID), []byte(ev.Payload))
	}
}

// LogSender 未配置 Kafka 时使用
func LogSender(log *zap.Logger) Sender {
	return func(ctx context.Context, ev *model.LifecycleEvent) error {
		log.Info("lifecycle event",
			zap.String("type", ev.EventType),
			zap.String("kind", ev.Kind),
			zap.Uint64("entity", ev.EntityID),
			zap.Uint64("actor", ev.ActorID),
			zap.String("payload", ev.Payload))
		return nil
	}
}
