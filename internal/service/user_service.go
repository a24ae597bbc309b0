package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/pkg"
	"Jazz_Forum/internal/repository/mysql"
	"Jazz_Forum/internal/repository/redis"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	repo     *mysql.UserRepository
	sessions *redis.SessionRepository
	log      *zap.Logger
}

func NewUserService(db *gorm.DB, sessions *redis.SessionRepository, log *zap.Logger) *UserService {
	return &UserService{
		repo:     mysql.NewUserRepository(db),
		sessions: sessions,
		log:      log,
	}
}

func (s *UserService) Register(ctx context.Context, username, displayName, password, email string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, apperr.Invalid("username must be 3-32 characters")
	}
	if len(password) < 8 {
		return nil, apperr.Invalid("password must be at least 8 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("invalid email")
	}
	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName = username
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, apperr.Invalid("username already taken")
	}
	if _, err := s.repo.FindByUsername(ctx, email); err == nil {
		return nil, apperr.Invalid("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:    username,
		DisplayName: displayName,
		Password:    string(hash),
		Role:        lifecycle.RoleMember,
		Email:       email,
	}
	if err = s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 账号可以是用户名或邮箱；新 token 覆盖旧会话
func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, *model.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, apperr.ErrUnauthorized
	}
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *UserService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := pkg.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	// 将token写入redis
	if err = s.sessions.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.DeleteUserToken(ctx, userID)
}

// Refresh 重新读取角色并轮换会话 token
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := pkg.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *UserService) Me(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", userID)
	}
	return user, err
}

// ChangeRole 仅 super_admin；目标用户的会话作废，重新登录后生效
func (s *UserService) ChangeRole(ctx context.Context, actor lifecycle.Actor, targetID uint64, role string) error {
	if !actor.Authenticated() {
		return apperr.ErrUnauthorized
	}
	if actor.Role != lifecycle.RoleSuperAdmin {
		return apperr.Forbidden("only super_admin may change roles")
	}
	if !lifecycle.ValidRole(role) {
		return apperr.Invalid("unknown role %q", role)
	}
	if targetID == actor.ID {
		return apperr.Invalid("cannot change own role")
	}
	if _, err := s.repo.FindByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user %d not found", targetID)
		}
		return err
	}
	if _, err := s.repo.UpdateRole(ctx, targetID, role); err != nil {
		return err
	}
	s.log.Info("role changed", zap.Uint64("user", targetID), zap.String("role", role), zap.Uint64("actor", actor.ID))
	return s.sessions.DeleteUserToken(ctx, targetID)
}

// EnsureSuperAdmin 启动时创建初始超级管理员，已存在则跳过
func (s *UserService) EnsureSuperAdmin(ctx context.Context, username, password, email string) error {
	if password == "" {
		s.log.Warn("SUPER_ADMIN_PASSWORD not set, skip seeding super admin")
		return nil
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err = s.repo.Create(ctx, &model.User{
		Username:    username,
		DisplayName: username,
		Password:    string(hash),
		Role:        lifecycle.RoleSuperAdmin,
		Email:       email,
	}); err != nil {
		return err
	}
	s.log.Info("seeded super admin", zap.String("username", username))
	return nil
}
