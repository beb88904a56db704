package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/repository"
)

// Profile 个人主页所需数据
type Profile struct {
	Author     *model.User
	Page       pagination.Page[*model.Post]
	TotalPosts int64
	Followers  int64
	Following  int64
	// IsFollowing 当前访问者是否已关注（未登录为 false）
	IsFollowing bool
}

type ProfileService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	follows  repository.FollowRepository
	pageSize int
}

func NewProfileService(users repository.UserRepository, posts repository.PostRepository, follows repository.FollowRepository, pageSize int) *ProfileService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &ProfileService{users: users, posts: posts, follows: follows, pageSize: pageSize}
}

// Load 用户不存在时返回 repository.ErrUserNotFound；viewerID 为 0 表示匿名
func (s *ProfileService) Load(ctx context.Context, username string, viewerID uint, rawPage string) (*Profile, error) {
	author, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	page, err := listPosts(ctx, s.posts, repository.PostFilter{AuthorID: author.ID}, rawPage, s.pageSize)
	if err != nil {
		return nil, err
	}
	p := &Profile{Author: author, Page: page, TotalPosts: page.Total}

	if p.Followers, err = s.follows.CountFollowers(ctx, author.ID); err != nil {
		return nil, err
	}
	if p.Following, err = s.follows.CountFollowing(ctx, author.ID); err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != author.ID {
		if p.IsFollowing, err = s.follows.Exists(ctx, viewerID, author.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}
