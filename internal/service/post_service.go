package service

import (
	"context"
	"errors"
	"strings"

	"Jazz_Forum/internal/apperr"
	"Jazz_Forum/internal/lifecycle"
	"Jazz_Forum/internal/model"
	"Jazz_Forum/internal/repository/mysql"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxPostLength = 20000

type PostService struct {
	repo    *mysql.PostRepository
	threads *ThreadService
	policy  *bluemonday.Policy
	log     *zap.Logger
}

func NewPostService(db *gorm.DB, threads *ThreadService, log *zap.Logger) *PostService {
	return &PostService{
		repo:    mysql.NewPostRepository(db),
		threads: threads,
		policy:  bluemonday.UGCPolicy(),
		log:     log,
	}
}

func (s *PostService) clean(content string) (string, error) {
	content = strings.TrimSpace(s.policy.Sanitize(content))
	if content == "" {
		return "", apperr.Invalid("content is empty")
	}
	if len(content) > maxPostLength {
		return "", apperr.Invalid("content is too long")
	}
	return content, nil
}

// Create 帖子需可见且未归档
func (s *PostService) Create(ctx context.Context, actor lifecycle.Actor, threadID uint64, content string, attachments []string) (*model.Post, error) {
	if !actor.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	t, err := s.threads.accessible(ctx, actor, threadID)
	if err != nil {
		return nil, err
	}
	if t.Status == model.ThreadArchived {
		return nil, apperr.Invalid("thread %d is archived", threadID)
	}
	if content, err = s.clean(content); err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []string{}
	}
	post := &model.Post{
		ThreadID:    threadID,
		AuthorID:    actor.ID,
		Content:     content,
		Attachments: datatypes.JSONSlice[string](attachments),
	}
	if err = s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, actor lifecycle.Actor, threadID uint64, page, size int) ([]model.Post, error) {
	if _, err := s.threads.accessible(ctx, actor, threadID); err != nil {
		return nil, err
	}
	offset, limit := pageWindow(page, size)
	return s.repo.ListByThread(ctx, threadID, offset, limit)
}

// Edit 只允许作者本人；所属帖子已删除或被隐藏时回复同样不可见
func (s *PostService) Edit(ctx context.Context, actor lifecycle.Actor, id uint64, content string) (*model.Post, error) {
	if !actor.Authenticated() {
		return nil, apperr.ErrUnauthorized
	}
	post, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("post %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	if _, err = s.threads.accessible(ctx, actor, post.ThreadID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("post %d not found", id)
		}
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, apperr.Forbidden("only the author may edit post %d", id)
	}
	if content, err = s.clean(content); err != nil {
		return nil, err
	}
	ok, err := s.repo.Edit(ctx, id, actor.ID, content, nowUTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("post %d not found", id)
	}
	return s.repo.FindByID(ctx, id)
}
