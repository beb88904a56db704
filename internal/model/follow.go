package model

import "time"

// Follow 关注关系（UserID 关注 AuthorID）
type Follow struct {
	ID       uint `gorm:"primaryKey"`
	UserID   uint `gorm:"not null;index:idx_follow_user;uniqueIndex:ux_follow_pair"`
	AuthorID uint `gorm:"not null;index:idx_follow_author;uniqueIndex:ux_follow_pair"`
	// 复合唯一键，避免重复关注
	// ux_follow_pair = (user_id, author_id)
	User      User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author    User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
