package service

import (
	"context"
	"fmt"

	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/pkg"

	"go.uber.org/zap"
)

// Notifier 通知删除者记录即将被永久删除
type Notifier interface {
	NotifyExpiring(ctx context.Context, to model.User, item ExpiringItem) error
}

type EmailNotifier struct {
	cfg pkg.SMTPConfig
}

func NewEmailNotifier(cfg pkg.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (n *EmailNotifier) NotifyExpiring(ctx context.Context, to model.User, item ExpiringItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := fmt.Sprintf("Irish Jazz Forum: deleted %s expires soon", item.Kind)
	body := pkg.ExpiryWarningHTML(to.DisplayName, item.Kind.String(), item.Label, item.DaysLeft, lifecycle.PermanentAt(item.DeletedAt))
	return pkg.SendEmail(n.cfg, to.Email, subject, body)
}

// LogNotifier SMTP 未配置时使用
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyExpiring(_ context.Context, to model.User, item ExpiringItem) error {
	n.log.Info("expiry warning",
		zap.String("to", to.Email),
		zap.String("kind", item.Kind.String()),
		zap.Uint64("id", item.ID),
		zap.Int("days_left", item.DaysLeft))
	return nil
}
