package model

import "time"

// Post 帖子，默认按 created_at DESC, id DESC 排序
type Post struct {
	ID        uint      `gorm:"primaryKey"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"index:idx_post_created"`
	AuthorID  uint      `gorm:"not null;index:idx_post_author"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID   *uint     `gorm:"index:idx_post_group"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL"`
	// Image 存储键（posts/<uuid>.gif），为空表示没有图片
	Image string `gorm:"type:varchar(255)"`
}

func (Post) TableName() string { return "posts" }

// HasGroup reports whether the post is tagged to a group.
func (p *Post) HasGroup() bool { return p.GroupID != nil && p.Group != nil }
