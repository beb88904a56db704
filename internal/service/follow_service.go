package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

type FollowResult int

const (
	FollowCreated FollowResult = iota + 1
	// FollowDuplicate 已经关注过，未写入
	FollowDuplicate
	// FollowSelf 自己关注自己，忽略
	FollowSelf
)

func (r FollowResult) String() string {
	switch r {
	case FollowCreated:
		return "created"
	case FollowDuplicate:
		return "duplicate"
	case FollowSelf:
		return "self"
	default:
		return "unknown"
	}
}

type UnfollowResult int

const (
	UnfollowDeleted UnfollowResult = iota + 1
	UnfollowMissing
)

func (r UnfollowResult) String() string {
	switch r {
	case UnfollowDeleted:
		return "deleted"
	case UnfollowMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// FollowService 关注关系
type FollowService interface {
	Follow(ctx context.Context, userID, authorID uint) (FollowResult, error)
	Unfollow(ctx context.Context, userID, authorID uint) (UnfollowResult, error)
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
}

type followService struct {
	follows repository.FollowRepository
}

func NewFollowService(follows repository.FollowRepository) FollowService {
	return &followService{follows: follows}
}

func (s *followService) Follow(ctx context.Context, userID, authorID uint) (FollowResult, error) {
	if userID == authorID {
		return FollowSelf, nil
	}
	created, err := s.follows.Create(ctx, userID, authorID)
	if err != nil {
		logger.Ctx(ctx).Error("failed to follow", zap.Uint("user_id", userID), zap.Uint("author_id", authorID), zap.Error(err))
		return 0, err
	}
	if !created {
		return FollowDuplicate, nil
	}
	audit(ctx, ActionFollow, userID, "author followed", zap.Uint("author_id", authorID))
	return FollowCreated, nil
}

func (s *followService) Unfollow(ctx context.Context, userID, authorID uint) (UnfollowResult, error) {
	deleted, err := s.follows.Delete(ctx, userID, authorID)
	if err != nil {
		logger.Ctx(ctx).Error("failed to unfollow", zap.Uint("user_id", userID), zap.Uint("author_id", authorID), zap.Error(err))
		return 0, err
	}
	if !deleted {
		return UnfollowMissing, nil
	}
	audit(ctx, ActionUnfollow, userID, "author unfollowed", zap.Uint("author_id", authorID))
	return UnfollowDeleted, nil
}

func (s *followService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.follows.Exists(ctx, userID, authorID)
}
