package lifecycle

import "time"

const (
	// RetentionWindow 软删除后可恢复的固定窗口
	RetentionWindow = 7 * 24 * time.Hour
	// ExpiringSoonDays 剩余天数不超过该值时提示即将过期
	ExpiringSoonDays = 2

	day = 24 * time.Hour
)

// PermanentAt 超过该时间点后记录进入永久删除
func PermanentAt(deletedAt time.Time) time.Time {
	return deletedAt.Add(RetentionWindow)
}

// PurgeCutoff deleted_at 早于该时间的记录可被清理
func PurgeCutoff(now time.Time) time.Time {
	return now.Add(-RetentionWindow)
}

// DaysUntilPermanent max(0, ceil((deletedAt + window - now) / 1 day))
func DaysUntilPermanent(deletedAt, now time.Time) int {
	remaining := PermanentAt(deletedAt).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int((remaining + day - 1) / day)
}

func ExpiringSoon(deletedAt, now time.Time) bool {
	return DaysUntilPermanent(deletedAt, now) <= ExpiringSoonDays
}

// Expired 当前时间严格超过窗口末端后不可恢复
func Expired(deletedAt, now time.Time) bool {
	return now.After(PermanentAt(deletedAt))
}

// Countdown 回收站列表展示用的派生字段
type Countdown struct {
	ExpiringSoon       bool `json:"expiringSoon"`
	DaysUntilPermanent int  `json:"daysUntilPermanent"`
	Restorable         bool `json:"restorable"`
}

func CountdownFor(deletedAt, now time.Time) Countdown {
	return Countdown{
		ExpiringSoon:       ExpiringSoon(deletedAt, now),
		DaysUntilPermanent: DaysUntilPermanent(deletedAt, now),
		Restorable:         !Expired(deletedAt, now),
	}
}
