package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yatube/internal/model"
)

// PostFilter 帖子列表过滤条件，零值表示全部帖子
type PostFilter struct {
	GroupID  uint
	AuthorID uint
	// FollowerID 非零时只返回该用户关注的作者的帖子（不含其本人）
	FollowerID uint
}

type PostRepository interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	// Update 只写 text、group_id、image 三列
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, p *model.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

func (r *postRepository) Update(ctx context.Context, p *model.Post) error {
	res := r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"text":     p.Text,
		"group_id": p.GroupID,
		"image":    p.Image,
	})
	if res.Error != nil {
		return fmt.Errorf("update post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.filtered(ctx, f).
		Preload("Author").
		Preload("Group").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return res, nil
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	if err := r.filtered(ctx, f).Count(&cnt).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return cnt, nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.Count(ctx, PostFilter{AuthorID: authorID})
}

func (r *postRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Post{})
	if f.GroupID != 0 {
		q = q.Where("posts.group_id = ?", f.GroupID)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.FollowerID != 0 {
		followed := r.db.Model(&model.Follow{}).Select("author_id").Where("user_id = ?", f.FollowerID)
		q = q.Where("posts.author_id IN (?)", followed).
			Where("posts.author_id <> ?", f.FollowerID)
	}
	return q
}
