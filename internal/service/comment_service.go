package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

type CommentService interface {
	// Add 帖子不存在时返回 repository.ErrPostNotFound
	Add(ctx context.Context, postID, authorID uint, form forms.CommentForm) (*model.Comment, forms.Errors, error)
	ListByPost(ctx context.Context, postID uint) ([]*model.Comment, error)
}

type commentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository) CommentService {
	return &commentService{comments: comments, posts: posts}
}

func (s *commentService) Add(ctx context.Context, postID, authorID uint, form forms.CommentForm) (*model.Comment, forms.Errors, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, nil, err
	}
	form.Clean()
	if errs := forms.Check(&form); errs.Any() {
		return nil, errs, nil
	}
	c := &model.Comment{PostID: postID, AuthorID: authorID, Text: form.Text}
	if err := s.comments.Create(ctx, c); err != nil {
		logger.Ctx(ctx).Error("failed to create comment", zap.Uint("post_id", postID), zap.Error(err))
		return nil, nil, err
	}
	audit(ctx, ActionComment, authorID, "comment added", zap.Uint("post_id", postID))
	return c, nil, nil
}

func (s *commentService) ListByPost(ctx context.Context, postID uint) ([]*model.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}
