package repository

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already exists")
	ErrGroupNotFound   = errors.New("group not found")
	ErrGroupSlugExists = errors.New("group slug already exists")
	ErrPostNotFound    = errors.New("post not found")
	ErrSessionNotFound = errors.New("session not found")
)
