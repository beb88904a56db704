package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// 审计动作
const (
	ActionSignup         = "user.signup"
	ActionLogin          = "user.login"
	ActionLoginFailed    = "user.login_failed"
	ActionLogout         = "user.logout"
	ActionChangePassword = "user.change_password"
	ActionPostCreate     = "post.create"
	ActionPostEdit       = "post.edit"
	ActionComment        = "post.comment"
	ActionFollow         = "user.follow"
	ActionUnfollow       = "user.unfollow"
)

func audit(ctx context.Context, action string, userID uint, msg string, fields ...zap.Field) {
	fs := append([]zap.Field{
		zap.String("log_type", "audit"),
		zap.String("action", action),
		zap.Uint("user_id", userID),
	}, fields...)
	logger.Ctx(ctx).Info(msg, fs...)
}
