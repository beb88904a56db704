package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/repository"
)

// FeedService 关注作者的帖子流
type FeedService struct {
	posts    repository.PostRepository
	pageSize int
}

func NewFeedService(posts repository.PostRepository, pageSize int) *FeedService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &FeedService{posts: posts, pageSize: pageSize}
}

// Build 返回 viewerID 关注的作者的帖子（不含本人），没有关注时为空页
func (s *FeedService) Build(ctx context.Context, viewerID uint, rawPage string) (pagination.Page[*model.Post], error) {
	return listPosts(ctx, s.posts, repository.PostFilter{FollowerID: viewerID}, rawPage, s.pageSize)
}
