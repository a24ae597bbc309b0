package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const WarnedKeyPrefix = "lifecycle:warned"

// WarningRepository 记录已发送过过期提醒的记录，避免重复发送
type WarningRepository struct {
	RDB *redis.Client
}

func NewWarningRepository(rdb *redis.Client) *WarningRepository {
	return &WarningRepository{RDB: rdb}
}

func (r *WarningRepository) key(kind string, id uint64, deletedAt time.Time) string {
	return fmt.Sprintf("%s:%s:%d:%d", WarnedKeyPrefix, kind, id, deletedAt.Unix())
}

// MarkWarned 首次标记返回 true；键带上 deletedAt，恢复后再次删除会重新提醒
func (r *WarningRepository) MarkWarned(ctx context.Context, kind string, id uint64, deletedAt time.Time, ttl time.Duration) (bool, error) {
	return r.RDB.SetNX(ctx, r.key(kind, id, deletedAt), 1, ttl).Result()
}

// Forget 发送失败时撤销标记，下一轮重试
func (r *WarningRepository) Forget(ctx context.Context, kind string, id uint64, deletedAt time.Time) error {
	return r.RDB.Del(ctx, r.key(kind, id, deletedAt)).Err()
}
