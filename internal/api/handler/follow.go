package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
)

// FollowIndex 关注作者的帖子流
func (h *Handler) FollowIndex(c *gin.Context) {
	page, err := h.Feed.Build(c.Request.Context(), middleware.UserID(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplFollow, gin.H{"Page": page, "Follow": true})
}

// Follow 关注作者；自己关注自己或重复关注都静默忽略
func (h *Handler) Follow(c *gin.Context) {
	username := c.Param("username")
	author, err := h.Auth.UserByUsername(c.Request.Context(), username)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.Follows.Follow(c.Request.Context(), middleware.UserID(c), author.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(author.Username))
}

// Unfollow 取消关注
func (h *Handler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	author, err := h.Auth.UserByUsername(c.Request.Context(), username)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.Follows.Unfollow(c.Request.Context(), middleware.UserID(c), author.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(author.Username))
}
