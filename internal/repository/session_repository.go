package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
)

type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	// Get 返回会话并预加载用户；过期与不存在都是 ErrSessionNotFound
	Get(ctx context.Context, token string, now time.Time) (*model.Session, error)
	Delete(ctx context.Context, token string) error
	// DeleteOthers 删除 userID 名下除 keep 以外的全部会话（改密码后使用）
	DeleteOthers(ctx context.Context, userID uint, keep string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepository{db: db} }

func (r *sessionRepository) Create(ctx context.Context, s *model.Session) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(s).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if s.Expired(now) {
		// 惰性清理
		_ = r.Delete(ctx, token)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *sessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeleteOthers(ctx context.Context, userID uint, keep string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token <> ?", userID, keep).
		Delete(&model.Session{}).Error
	if err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&model.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
