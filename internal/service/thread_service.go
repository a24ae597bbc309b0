package service

import (
	"context"
	"errors"
	"strings"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/repository/mysql"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ThreadService struct {
	repo   *mysql.ThreadRepository
	groups *mysql.WorkingGroupRepository
	log    *zap.Logger
}

func NewThreadService(db *gorm.DB, log *zap.Logger) *ThreadService {
	return &ThreadService{
		repo:   mysql.NewThreadRepository(db),
		groups: mysql.NewWorkingGroupRepository(db),
		log:    log,
	}
}

type CreateThreadInput struct {
	Title           string
	WorkingGroupIDs []uint64
	Tags            []string
}

// accessScope 一次请求内的可见性判断所需数据
type accessScope struct {
	actor   lifecycle.Actor
	live    map[uint64]model.WorkingGroup
	members map[uint64]struct{}
}

func (s *ThreadService) scope(ctx context.Context, actor lifecycle.Actor, groupIDs []uint64) (*accessScope, error) {
	sc := &accessScope{
		actor:   actor,
		live:    make(map[uint64]model.WorkingGroup),
		members: make(map[uint64]struct{}),
	}
	if actor.IsAdmin() || len(groupIDs) == 0 {
		return sc, nil
	}
	groups, err := s.groups.FindLiveByIDs(ctx, groupIDs)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		sc.live[g.ID] = g
	}
	mine, err := s.groups.MemberGroupIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range mine {
		sc.members[id] = struct{}{}
	}
	return sc, nil
}

// allows 管理员全部可见；公共帖可见；否则需要任一未删除的所属组公开或本人是成员
func (sc *accessScope) allows(t *model.Thread) bool {
	if sc.actor.IsAdmin() || len(t.WorkingGroupIDs) == 0 {
		return true
	}
	for _, gid := range t.WorkingGroupIDs {
		g, ok := sc.live[gid]
		if !ok {
			continue
		}
		if !g.IsPrivate {
			return true
		}
		if _, ok = sc.members[gid]; ok {
			return true
		}
	}
	return false
}

func (s *ThreadService) Create(ctx context.Context, actor lifecycle.Actor, in CreateThreadInput) (*model.Thread, error) {
	if !actor.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" || len(title) > 200 {
		return nil, apperr.Invalid("title must be 1-200 characters")
	}
	groupIDs := dedupe(in.WorkingGroupIDs)
	if len(groupIDs) > 0 {
		sc, err := s.scope(ctx, lifecycle.Actor{ID: actor.ID, Role: lifecycle.RoleMember}, groupIDs)
		if err != nil {
			return nil, err
		}
		for _, gid := range groupIDs {
			g, ok := sc.live[gid]
			if !ok {
				return nil, apperr.Invalid("working group %d does not exist", gid)
			}
			if _, member := sc.members[gid]; g.IsPrivate && !member && !actor.IsAdmin() {
				return nil, apperr.Forbidden("not a member of working group %d", gid)
			}
		}
	}

	t := &model.Thread{
		Title:           title,
		Slug:            threadSlug(title),
		AuthorID:        actor.ID,
		Status:          model.ThreadActive,
		Tags:            datatypes.JSONSlice[string](normalizeTags(in.Tags)),
		WorkingGroupIDs: groupIDs,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// threadSlug 标题可能重复，追加短随机后缀
func threadSlug(title string) string {
	base := slug.Make(title)
	if len(base) > 200 {
		base = strings.Trim(base[:200], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, t := range tags {
		t = slug.Make(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// List 默认读路径，再按访问权限取交集
func (s *ThreadService) List(ctx context.Context, actor lifecycle.Actor, groupID uint64, page, size int) ([]model.Thread, error) {
	offset, limit := pageWindow(page, size)
	list, err := s.repo.List(ctx, mysql.ThreadListParams{WorkingGroupID: groupID, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	var all []uint64
	for _, t := range list {
		all = append(all, t.WorkingGroupIDs...)
	}
	sc, err := s.scope(ctx, actor, dedupe(all))
	if err != nil {
		return nil, err
	}
	out := make([]model.Thread, 0, len(list))
	for i := range list {
		if sc.allows(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out, nil
}

// accessible 加载未删除且当前用户可见的帖子
func (s *ThreadService) accessible(ctx context.Context, actor lifecycle.Actor, id uint64) (*model.Thread, error) {
	t, err := s.repo.FindVisible(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("thread %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	sc, err := s.scope(ctx, actor, t.WorkingGroupIDs)
	if err != nil {
		return nil, err
	}
	if !sc.allows(t) {
		return nil, apperr.Forbidden("thread %d is restricted to its working groups", id)
	}
	return t, nil
}

// Get 详情页，浏览数+1
func (s *ThreadService) Get(ctx context.Context, actor lifecycle.Actor, id uint64) (*model.Thread, error) {
	t, err := s.accessible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err = s.repo.IncrementViews(ctx, id); err != nil {
		s.log.Warn("increment views failed", zap.Uint64("thread", id), zap.Error(err))
	} else {
		t.ViewCount++
	}
	return t, nil
}

// UpdateStatus 作者或管理员
func (s *ThreadService) UpdateStatus(ctx context.Context, actor lifecycle.Actor, id uint64, status string) error {
	if !actor.Authenticated() {
		return apperr.ErrUnauthorized
	}
	if !model.ValidThreadStatus(status) {
		return apperr.Invalid("unknown status %q", status)
	}
	t, err := s.accessible(ctx, actor, id)
	if err != nil {
		return err
	}
	if t.AuthorID != actor.ID && !actor.IsAdmin() {
		return apperr.Forbidden("only the author or an admin may change the status")
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *ThreadService) SetPinned(ctx context.Context, actor lifecycle.Actor, id uint64, pinned bool) error {
	if !actor.Authenticated() {
		return apperr.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins may pin threads")
	}
	if _, err := s.accessible(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.SetPinned(ctx, id, pinned)
}
