package service

import (
	"context"
	"errors"
	"strings"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/repository/mysql"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type WorkingGroupService struct {
	repo  *mysql.WorkingGroupRepository
	users *mysql.UserRepository
	log   *zap.Logger
}

func NewWorkingGroupService(db *gorm.DB, log *zap.Logger) *WorkingGroupService {
	return &WorkingGroupService{
		repo:  mysql.NewWorkingGroupRepository(db),
		users: mysql.NewUserRepository(db),
		log:   log,
	}
}

type CreateWorkingGroupInput struct {
	Name          string
	Description   string
	IsPrivate     bool
	CoordinatorID uint64 // 0 表示由创建者担任
}

// Create 仅管理员可建组，slug 由名称生成且全局唯一（含回收站中的组）
func (s *WorkingGroupService) Create(ctx context.Context, actor lifecycle.Actor, in CreateWorkingGroupInput) (*model.WorkingGroup, error) {
	if !actor.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins may create working groups")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 128 {
		return nil, apperr.Invalid("name must be 1-128 characters")
	}
	groupSlug := slug.Make(name)
	if groupSlug == "" {
		return nil, apperr.Invalid("name must contain letters or digits")
	}
	taken, err := s.repo.SlugTaken(ctx, groupSlug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Invalid("working group %q already exists", groupSlug)
	}

	coordinator := in.CoordinatorID
	if coordinator == 0 {
		coordinator = actor.ID
	}
	if _, err = s.users.FindByID(ctx, coordinator); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Invalid("coordinator %d does not exist", coordinator)
		}
		return nil, err
	}

	g := &model.WorkingGroup{
		Name:          name,
		Slug:          groupSlug,
		Description:   strings.TrimSpace(in.Description),
		CoordinatorID: &coordinator,
		IsPrivate:     in.IsPrivate,
		IsActive:      true,
	}
	if err = s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	s.log.Info("working group created", zap.Uint64("id", g.ID), zap.String("slug", g.Slug))
	return g, nil
}

func (s *WorkingGroupService) List(ctx context.Context, page, size int) ([]model.WorkingGroup, error) {
	offset, limit := pageWindow(page, size)
	return s.repo.List(ctx, offset, limit)
}

func (s *WorkingGroupService) GetBySlug(ctx context.Context, slugStr string) (*model.WorkingGroup, error) {
	g, err := s.repo.FindBySlug(ctx, slugStr)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("working group %q not found", slugStr)
	}
	return g, err
}

func (s *WorkingGroupService) live(ctx context.Context, id uint64) (*model.WorkingGroup, error) {
	g, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("working group %d not found", id)
	}
	return g, err
}

// Join 私有组只能由管理员加入
func (s *WorkingGroupService) Join(ctx context.Context, actor lifecycle.Actor, id uint64) error {
	if !actor.Authenticated() {
		return apperr.ErrUnauthorized
	}
	g, err := s.live(ctx, id)
	if err != nil {
		return err
	}
	if !g.IsActive {
		return apperr.Invalid("working group %d is not active", id)
	}
	if g.IsPrivate && !actor.IsAdmin() {
		return apperr.Forbidden("working group %d is private", id)
	}
	return s.repo.Join(ctx, &model.WorkingGroupMember{
		WorkingGroupID: id,
		UserID:         actor.ID,
		Role:           model.MemberRoleMember,
	})
}

func (s *WorkingGroupService) Leave(ctx context.Context, actor lifecycle.Actor, id uint64) error {
	if !actor.Authenticated() {
		return apperr.ErrUnauthorized
	}
	if _, err := s.live(ctx, id); err != nil {
		return err
	}
	return s.repo.Leave(ctx, id, actor.ID)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageWindow page 从 1 开始
func pageWindow(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (page - 1) * size, size
}
