package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
)

func postURL(id uint) string { return fmt.Sprintf("/posts/%d/", id) }

func profileURL(username string) string { return "/profile/" + username + "/" }

// Index 首页，外层有整页缓存
func (h *Handler) Index(c *gin.Context) {
	page, err := h.Posts.List(c.Request.Context(), repository.PostFilter{}, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplIndex, gin.H{"Page": page, "Index": true})
}

func (h *Handler) GroupPosts(c *gin.Context) {
	ctx := c.Request.Context()
	g, err := h.Groups.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := h.Posts.List(ctx, repository.PostFilter{GroupID: g.ID}, c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplGroup, gin.H{"Group": g, "Page": page, "HideGroupLink": true})
}

func (h *Handler) Profile(c *gin.Context) {
	p, err := h.Profiles.Load(c.Request.Context(), c.Param("username"), middleware.UserID(c), c.Query("page"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplProfile, gin.H{
		"Author":         p.Author,
		"Page":           p.Page,
		"TotalPosts":     p.TotalPosts,
		"Followers":      p.Followers,
		"Following":      p.Following,
		"IsFollowing":    p.IsFollowing,
		"HideAuthorLink": true,
	})
}

func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	h.renderDetail(c, id)
}

func (h *Handler) renderDetail(c *gin.Context, id uint) {
	ctx := c.Request.Context()
	p, err := h.Posts.Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	total, err := h.Posts.CountByAuthor(ctx, p.AuthorID)
	if err != nil {
		h.fail(c, err)
		return
	}
	comments, err := h.Comments.ListByPost(ctx, p.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, tmplPostDetail, gin.H{
		"Post":       p,
		"TotalPosts": total,
		"Comments":   comments,
		"Form":       forms.CommentForm{},
	})
}

// AddComment 无论表单是否合法都回到帖子详情
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	var form forms.CommentForm
	_ = c.ShouldBind(&form)
	if _, _, err := h.Comments.Add(c.Request.Context(), id, middleware.UserID(c), form); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, postURL(id))
}

func (h *Handler) CreatePostForm(c *gin.Context) {
	h.renderPostForm(c, http.StatusOK, forms.PostForm{}, nil, gin.H{})
}

func (h *Handler) CreatePost(c *gin.Context) {
	form, errs := h.bindPostForm(c)
	if errs.Any() {
		h.renderPostForm(c, http.StatusOK, form, errs, gin.H{})
		return
	}
	u := middleware.CurrentUser(c)
	_, errs, err := h.Posts.Create(c.Request.Context(), u.ID, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs.Any() {
		h.renderPostForm(c, http.StatusOK, form, errs, gin.H{})
		return
	}
	c.Redirect(http.StatusFound, profileURL(u.Username))
}

func (h *Handler) EditPostForm(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	p, err := h.Posts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if p.AuthorID != middleware.UserID(c) {
		c.Redirect(http.StatusFound, postURL(id))
		return
	}
	form := forms.PostForm{Text: p.Text}
	if p.GroupID != nil {
		form.Group = fmt.Sprint(*p.GroupID)
	}
	h.renderPostForm(c, http.StatusOK, form, nil, gin.H{"IsEdit": true, "Post": p})
}

func (h *Handler) EditPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	form, errs := h.bindPostForm(c)
	if errs.Any() {
		p, err := h.Posts.Get(c.Request.Context(), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		if p.AuthorID != middleware.UserID(c) {
			c.Redirect(http.StatusFound, postURL(id))
			return
		}
		h.renderPostForm(c, http.StatusOK, form, errs, gin.H{"IsEdit": true, "Post": p})
		return
	}

	out, err := h.Posts.Update(c.Request.Context(), middleware.UserID(c), id, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	switch out.Result {
	case service.EditInvalid:
		h.renderPostForm(c, http.StatusOK, form, out.Errors, gin.H{"IsEdit": true, "Post": out.Post})
	default:
		// EditApplied 与 EditDenied 都回到详情页
		c.Redirect(http.StatusFound, postURL(id))
	}
}

func (h *Handler) renderPostForm(c *gin.Context, status int, form forms.PostForm, errs forms.Errors, data gin.H) {
	groups, err := h.Groups.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs == nil {
		errs = forms.Errors{}
	}
	data["Form"] = form
	data["Errors"] = errs
	data["Groups"] = groups
	h.render(c, status, tmplPostForm, data)
}

// bindPostForm 解析 multipart 表单与可选的 image 文件
func (h *Handler) bindPostForm(c *gin.Context) (forms.PostForm, forms.Errors) {
	var form forms.PostForm
	errs := forms.Errors{}
	if err := c.ShouldBind(&form); err != nil {
		errs.Add(forms.NonField, "Invalid form submission.")
		return form, errs
	}
	_, form.GroupSet = c.GetPostForm("group")
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return form, errs
	}

	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return form, errs
	case err != nil:
		errs.Add("image", "Invalid file upload.")
		return form, errs
	case fh.Size == 0:
		return form, errs
	case fh.Size > h.maxUpload:
		errs.Add("image", fmt.Sprintf("The file is too large (max %d MB).", h.maxUpload>>20))
		return form, errs
	}
	f, err := fh.Open()
	if err != nil {
		errs.Add("image", "Invalid file upload.")
		return form, errs
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		errs.Add("image", "Invalid file upload.")
		return form, errs
	}
	form.Image = &forms.Upload{Filename: fh.Filename, Data: data}
	return form, errs
}
