package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/metrics"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/repository/mysql"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// lifecycleStore 每类实体的存储访问器
type lifecycleStore interface {
	LoadState(ctx context.Context, id uint64) (*mysql.LifecycleState, error)
	SoftDelete(ctx context.Context, id, actorID uint64, at time.Time) (bool, error)
	Restore(ctx context.Context, id, actorID uint64, at time.Time) (bool, error)
	PurgeExpired(ctx context.Context, cutoff, now time.Time) ([]uint64, error)
}

func nowUTC() time.Time { return time.Now().UTC() }

type binding struct {
	policy lifecycle.Policy
	store  lifecycleStore
}

type LifecycleService struct {
	groups  *mysql.WorkingGroupRepository
	threads *mysql.ThreadRepository
	posts   *mysql.PostRepository
	users   *mysql.UserRepository

	bindings map[lifecycle.Kind]binding
	log      *zap.Logger
	now      func() time.Time
}

func NewLifecycleService(db *gorm.DB, log *zap.Logger) *LifecycleService {
	s := &LifecycleService{
		groups:  mysql.NewWorkingGroupRepository(db),
		threads: mysql.NewThreadRepository(db),
		posts:   mysql.NewPostRepository(db),
		users:   mysql.NewUserRepository(db),
		log:     log,
		now:     nowUTC,
	}
	stores := map[lifecycle.Kind]lifecycleStore{
		lifecycle.KindWorkingGroup: s.groups,
		lifecycle.KindThread:       s.threads,
		lifecycle.KindPost:         s.posts,
	}
	s.bindings = make(map[lifecycle.Kind]binding, len(stores))
	for _, k := range lifecycle.Kinds() {
		p, _ := lifecycle.PolicyFor(k)
		s.bindings[k] = binding{policy: p, store: stores[k]}
	}
	return s
}

func (s *LifecycleService) bindingFor(kind lifecycle.Kind) (binding, error) {
	b, ok := s.bindings[kind]
	if !ok {
		return binding{}, apperr.Invalid("unknown type %q", kind.String())
	}
	return b, nil
}

func (s *LifecycleService) loadState(ctx context.Context, b binding, kind lifecycle.Kind, id uint64) (*mysql.LifecycleState, error) {
	st, err := b.store.LoadState(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("%s %d not found", kind, id)
	}
	return st, err
}

// SoftDelete 标记单条记录为已删除，不触及子记录
func (s *LifecycleService) SoftDelete(ctx context.Context, kind lifecycle.Kind, id uint64, actor lifecycle.Actor) (*mysql.LifecycleState, error) {
	if !actor.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	b, err := s.bindingFor(kind)
	if err != nil {
		return nil, err
	}
	if !b.policy.MayAttemptDelete(actor) {
		return nil, apperr.Forbidden("role %q may not delete %s", actor.Role, kind)
	}
	st, err := s.loadState(ctx, b, kind, id)
	if err != nil {
		return nil, err
	}
	if st.Deleted {
		return nil, apperr.NotFound("%s %d not found", kind, id)
	}
	if !b.policy.CanDelete(actor, st.OwnerID) {
		return nil, apperr.Forbidden("role %q may not delete %s %d", actor.Role, kind, id)
	}

	at := s.now()
	changed, err := b.store.SoftDelete(ctx, id, actor.ID, at)
	if err != nil {
		return nil, err
	}
	if !changed {
		// 并发删除或记录已被清理
		return nil, apperr.NotFound("%s %d not found", kind, id)
	}
	metrics.LifecycleTransitions.WithLabelValues(kind.String(), "soft_delete").Inc()
	s.log.Info("soft deleted",
		zap.String("kind", kind.String()), zap.Uint64("id", id), zap.Uint64("actor", actor.ID))

	st.Deleted = true
	st.DeletedAt = &at
	st.DeletedBy = &actor.ID
	return st, nil
}

// Restore 清除单条记录的删除标记；超过保留期的记录视为不存在
func (s *LifecycleService) Restore(ctx context.Context, kind lifecycle.Kind, id uint64, actor lifecycle.Actor) error {
	if !actor.Authenticated() {
		return apperr.ErrUnauthorized
	}
	b, err := s.bindingFor(kind)
	if err != nil {
		return err
	}
	if !b.policy.CanRestore(actor) {
		return apperr.Forbidden("role %q may not restore %s", actor.Role, kind)
	}
	st, err := s.loadState(ctx, b, kind, id)
	if err != nil {
		return err
	}
	if !st.Deleted || st.DeletedAt == nil {
		return apperr.NotFound("%s %d is not deleted", kind, id)
	}
	now := s.now()
	if lifecycle.Expired(*st.DeletedAt, now) {
		return apperr.NotFound("%s %d is past the retention window", kind, id)
	}

	changed, err := b.store.Restore(ctx, id, actor.ID, now)
	if err != nil {
		return err
	}
	if !changed {
		return apperr.NotFound("%s %d is not deleted", kind, id)
	}
	metrics.LifecycleTransitions.WithLabelValues(kind.String(), "restore").Inc()
	s.log.Info("restored",
		zap.String("kind", kind.String()), zap.Uint64("id", id), zap.Uint64("actor", actor.ID))
	return nil
}

type DeletedBy struct {
	ID          uint64 `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type DeletedWorkingGroup struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	DeletedAt   time.Time  `json:"deletedAt"`
	DeletedBy   *DeletedBy `json:"deletedBy"`
	ThreadCount int64      `json:"threadCount"`
	PostCount   int64      `json:"postCount"`
	lifecycle.Countdown
}

type DeletedThread struct {
	ID              uint64     `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	WorkingGroupIDs []uint64   `json:"workingGroupIds"`
	DeletedAt       time.Time  `json:"deletedAt"`
	DeletedBy       *DeletedBy `json:"deletedBy"`
	PostCount       int64      `json:"postCount"`
	lifecycle.Countdown
}

type DeletedPost struct {
	ID          uint64     `json:"id"`
	ThreadID    uint64     `json:"threadId"`
	ThreadTitle string     `json:"threadTitle"`
	AuthorID    uint64     `json:"authorId"`
	Preview     string     `json:"preview"`
	DeletedAt   time.Time  `json:"deletedAt"`
	DeletedBy   *DeletedBy `json:"deletedBy"`
	lifecycle.Countdown
}

// DeletedItems 回收站三类记录，各自按删除时间倒序
type DeletedItems struct {
	WorkingGroups []DeletedWorkingGroup `json:"workingGroups"`
	Threads       []DeletedThread       `json:"threads"`
	Posts         []DeletedPost         `json:"posts"`
}

func deletedAt(sd model.SoftDelete) time.Time {
	if sd.DeletedAt == nil {
		return time.Time{}
	}
	return *sd.DeletedAt
}

// ListDeleted 并发加载三类已删除记录及其派生字段
func (s *LifecycleService) ListDeleted(ctx context.Context, actor lifecycle.Actor) (*DeletedItems, error) {
	if !actor.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	if !lifecycle.HasRole(actor, lifecycle.ListDeletedRoles) {
		return nil, apperr.Forbidden("role %q may not list deleted items", actor.Role)
	}

	now := s.now()
	out := &DeletedItems{
		WorkingGroups: []DeletedWorkingGroup{},
		Threads:       []DeletedThread{},
		Posts:         []DeletedPost{},
	}
	// deletedBy 指针按 id 收集，最后统一填充
	deleters := make([][]*uint64, 3)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.groups.ListDeleted(gctx)
		if err != nil {
			return fmt.Errorf("list deleted working groups: %w", err)
		}
		ids := make([]uint64, 0, len(list))
		for _, wg := range list {
			ids = append(ids, wg.ID)
		}
		threads, err := s.groups.CountThreads(gctx, ids)
		if err != nil {
			return err
		}
		posts, err := s.groups.CountPosts(gctx, ids)
		if err != nil {
			return err
		}
		for _, wg := range list {
			at := deletedAt(wg.SoftDelete)
			out.WorkingGroups = append(out.WorkingGroups, DeletedWorkingGroup{
				ID:          wg.ID,
				Name:        wg.Name,
				Slug:        wg.Slug,
				Description: wg.Description,
				DeletedAt:   at,
				ThreadCount: threads[wg.ID],
				PostCount:   posts[wg.ID],
				Countdown:   lifecycle.CountdownFor(at, now),
			})
			deleters[0] = append(deleters[0], wg.DeletedBy)
		}
		return nil
	})
	g.Go(func() error {
		list, err := s.threads.ListDeleted(gctx)
		if err != nil {
			return fmt.Errorf("list deleted threads: %w", err)
		}
		ids := make([]uint64, 0, len(list))
		for _, t := range list {
			ids = append(ids, t.ID)
		}
		posts, err := s.threads.CountPosts(gctx, ids)
		if err != nil {
			return err
		}
		for _, t := range list {
			at := deletedAt(t.SoftDelete)
			out.Threads = append(out.Threads, DeletedThread{
				ID:              t.ID,
				Title:           t.Title,
				Slug:            t.Slug,
				WorkingGroupIDs: t.WorkingGroupIDs,
				DeletedAt:       at,
				PostCount:       posts[t.ID],
				Countdown:       lifecycle.CountdownFor(at, now),
			})
			deleters[1] = append(deleters[1], t.DeletedBy)
		}
		return nil
	})
	g.Go(func() error {
		list, err := s.posts.ListDeleted(gctx)
		if err != nil {
			return fmt.Errorf("list deleted posts: %w", err)
		}
		threadIDs := make([]uint64, 0, len(list))
		for _, p := range list {
			threadIDs = append(threadIDs, p.ThreadID)
		}
		titles, err := s.threads.FindTitles(gctx, threadIDs)
		if err != nil {
			return err
		}
		for _, p := range list {
			at := deletedAt(p.SoftDelete)
			out.Posts = append(out.Posts, DeletedPost{
				ID:          p.ID,
				ThreadID:    p.ThreadID,
				ThreadTitle: titles[p.ThreadID],
				AuthorID:    p.AuthorID,
				Preview:     lifecycle.Preview(p.Content),
				DeletedAt:   at,
				Countdown:   lifecycle.CountdownFor(at, now),
			})
			deleters[2] = append(deleters[2], p.DeletedBy)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	users, err := s.users.FindByIDs(ctx, collectIDs(deleters...))
	if err != nil {
		return nil, err
	}
	ref := func(id *uint64) *DeletedBy {
		if id == nil {
			return nil
		}
		u, ok := users[*id]
		if !ok {
			return &DeletedBy{ID: *id}
		}
		return &DeletedBy{ID: u.ID, DisplayName: u.DisplayName, Email: u.Email}
	}
	for i := range out.WorkingGroups {
		out.WorkingGroups[i].DeletedBy = ref(deleters[0][i])
	}
	for i := range out.Threads {
		out.Threads[i].DeletedBy = ref(deleters[1][i])
	}
	for i := range out.Posts {
		out.Posts[i].DeletedBy = ref(deleters[2][i])
	}
	return out, nil
}

func collectIDs(groups ...[]*uint64) []uint64 {
	seen := make(map[uint64]struct{})
	var ids []uint64
	for _, g := range groups {
		for _, id := range g {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; ok {
				continue
			}
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}
	return ids
}

// ExpiringItem 即将永久删除、仍可恢复的记录
type ExpiringItem struct {
	Kind      lifecycle.Kind
	ID        uint64
	Label     string
	DeletedAt time.Time
	DeletedBy uint64
	DaysLeft  int
}

// ExpiringSoon 后台提醒使用，不做角色校验
func (s *LifecycleService) ExpiringSoon(ctx context.Context) ([]ExpiringItem, error) {
	now := s.now()
	var items []ExpiringItem
	add := func(kind lifecycle.Kind, id uint64, label string, sd model.SoftDelete) {
		if sd.DeletedAt == nil || sd.DeletedBy == nil {
			return
		}
		cd := lifecycle.CountdownFor(*sd.DeletedAt, now)
		if !cd.ExpiringSoon || !cd.Restorable {
			return
		}
		items = append(items, ExpiringItem{
			Kind:      kind,
			ID:        id,
			Label:     label,
			DeletedAt: *sd.DeletedAt,
			DeletedBy: *sd.DeletedBy,
			DaysLeft:  cd.DaysUntilPermanent,
		})
	}

	groups, err := s.groups.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		add(lifecycle.KindWorkingGroup, g.ID, g.Name, g.SoftDelete)
	}
	threads, err := s.threads.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range threads {
		add(lifecycle.KindThread, t.ID, t.Title, t.SoftDelete)
	}
	posts, err := s.posts.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		add(lifecycle.KindPost, p.ID, lifecycle.Preview(p.Content), p.SoftDelete)
	}
	return items, nil
}

// PurgeReport 一次清理中各类型被永久删除的 id
type PurgeReport map[lifecycle.Kind][]uint64

func (r PurgeReport) Total() int {
	n := 0
	for _, ids := range r {
		n += len(ids)
	}
	return n
}

// PurgeExpired 永久删除超过保留期的记录；先回复，再帖子，最后工作组
func (s *LifecycleService) PurgeExpired(ctx context.Context) (PurgeReport, error) {
	now := s.now()
	cutoff := lifecycle.PurgeCutoff(now)
	report := make(PurgeReport)
	for _, kind := range []lifecycle.Kind{lifecycle.KindPost, lifecycle.KindThread, lifecycle.KindWorkingGroup} {
		ids, err := s.bindings[kind].store.PurgeExpired(ctx, cutoff, now)
		if err != nil {
			return report, fmt.Errorf("purge %s: %w", kind, err)
		}
		if len(ids) == 0 {
			continue
		}
		report[kind] = ids
		metrics.LifecyclePurged.WithLabelValues(kind.String()).Add(float64(len(ids)))
		s.log.Info("purged expired records", zap.String("kind", kind.String()), zap.Uint64s("ids", ids))
	}
	return report, nil
}
