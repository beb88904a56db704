package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// AuthService 注册、登录、会话与改密码
type AuthService interface {
	Signup(ctx context.Context, form forms.SignupForm) (*model.User, forms.Errors, error)
	Login(ctx context.Context, form forms.LoginForm) (*model.Session, forms.Errors, error)
	// StartSession 为用户签发新的不透明会话令牌
	StartSession(ctx context.Context, userID uint) (*model.Session, error)
	// Authenticate 由令牌解析当前用户；令牌无效或过期时返回 nil, nil
	Authenticate(ctx context.Context, token string) (*model.User, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID uint, token string, form forms.PasswordChangeForm) (forms.Errors, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
}

type authService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewAuthService ttl 为会话有效期
var tooLongPassword = fmt.Sprintf("Ensure this password has at most %d bytes.", forms.MaxPasswordBytes)

func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &authService{users: users, sessions: sessions, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

// NewAuthServiceWithCost 测试中用 bcrypt.MinCost 加速
func NewAuthServiceWithCost(users repository.UserRepository, sessions repository.SessionRepository, ttl time.Duration, cost int) AuthService {
	s := NewAuthService(users, sessions, ttl).(*authService)
	s.cost = cost
	return s
}

func (s *authService) Signup(ctx context.Context, form forms.SignupForm) (*model.User, forms.Errors, error) {
	form.Clean()
	if errs := forms.Check(&form); errs.Any() {
		return nil, errs, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, forms.Errors{"password1": tooLongPassword}, nil
	}
	if err != nil {
		logger.Ctx(ctx).Error("failed to hash password", zap.Error(err))
		return nil, nil, err
	}

	u := &model.User{
		Username:     form.Username,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Email:        form.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, forms.Errors{"username": "A user with that username already exists."}, nil
		}
		logger.Ctx(ctx).Error("failed to create user", zap.Error(err))
		return nil, nil, err
	}

	audit(ctx, ActionSignup, u.ID, "user registered", zap.String("username", u.Username))
	return u, nil, nil
}

func (s *authService) Login(ctx context.Context, form forms.LoginForm) (*model.Session, forms.Errors, error) {
	form.Clean()
	if errs := forms.Check(&form); errs.Any() {
		return nil, errs, nil
	}

	invalid := forms.Errors{forms.NonField: "Please enter a correct username and password. Note that both fields may be case-sensitive."}
	u, err := s.users.GetByUsername(ctx, form.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit(ctx, ActionLoginFailed, 0, "login failed: user not found", zap.String("username", form.Username))
			return nil, invalid, nil
		}
		logger.Ctx(ctx).Error("failed to get user by username", zap.Error(err))
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.Password)); err != nil {
		audit(ctx, ActionLoginFailed, u.ID, "login failed: wrong password")
		return nil, invalid, nil
	}

	sess, err := s.StartSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	audit(ctx, ActionLogin, u.ID, "user logged in")
	return sess, nil, nil
}

func (s *authService) StartSession(ctx context.Context, userID uint) (*model.Session, error) {
	now := s.now()
	sess := &model.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		logger.Ctx(ctx).Error("failed to create session", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return sess, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess.User, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		logger.Ctx(ctx).Error("failed to delete session", zap.Error(err))
		return err
	}
	audit(ctx, ActionLogout, 0, "user logged out")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, token string, form forms.PasswordChangeForm) (forms.Errors, error) {
	if errs := forms.Check(&form); errs.Any() {
		return errs, nil
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(form.OldPassword)); err != nil {
		return forms.Errors{"old_password": "Your old password was entered incorrectly. Please enter it again."}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.NewPassword1), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return forms.Errors{"new_password1": tooLongPassword}, nil
	}
	if err != nil {
		logger.Ctx(ctx).Error("failed to hash password", zap.Error(err))
		return nil, err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		logger.Ctx(ctx).Error("failed to update password", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	// 当前会话保留，其它设备上的会话失效
	if err := s.sessions.DeleteOthers(ctx, userID, token); err != nil {
		logger.Ctx(ctx).Warn("failed to revoke other sessions", zap.Uint("user_id", userID), zap.Error(err))
	}

	audit(ctx, ActionChangePassword, userID, "password changed")
	return nil, nil
}

func (s *authService) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetByUsername(ctx, username)
}
