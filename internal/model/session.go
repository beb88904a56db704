package model

import "time"

// Session 服务端会话，Token 为不透明的 uuid
type Session struct {
	Token     string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (Session) TableName() string { return "sessions" }

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
