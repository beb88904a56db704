package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yatube/internal/model"
)

type FollowRepository interface {
	// Create 返回是否真的插入了一行；重复关注返回 false, nil
	Create(ctx context.Context, userID, authorID uint) (bool, error)
	// Delete 返回是否删除了一行
	Delete(ctx context.Context, userID, authorID uint) (bool, error)
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	ListAuthors(ctx context.Context, userID uint, offset, limit int) ([]uint, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository { return &followRepository{db: db} }

func (r *followRepository) Create(ctx context.Context, userID, authorID uint) (bool, error) {
	f := &model.Follow{UserID: userID, AuthorID: authorID}
	// 幂等：撞上 ux_follow_pair 时不插入也不报错
	res := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(f)
	if res.Error != nil {
		return false, fmt.Errorf("create follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return false, fmt.Errorf("delete follow: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return cnt > 0, nil
}

func (r *followRepository) ListAuthors(ctx context.Context, userID uint, offset, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list followed authors: %w", err)
	}
	return ids, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return r.count(ctx, "author_id = ?", authorID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "user_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, query string, id uint) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).Model(&model.Follow{}).Where(query, id).Count(&cnt).Error; err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return cnt, nil
}
