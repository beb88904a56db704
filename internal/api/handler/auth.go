package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/api/middleware"
	"github.com/d60-Lab/yatube/internal/forms"
)

func (h *Handler) SignupForm(c *gin.Context) {
	h.render(c, http.StatusOK, tmplSignup, gin.H{"Form": forms.SignupForm{}})
}

func (h *Handler) Signup(c *gin.Context) {
	var form forms.SignupForm
	_ = c.ShouldBind(&form)
	ctx := c.Request.Context()
	u, errs, err := h.Auth.Signup(ctx, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs.Any() {
		form.Password1, form.Password2 = "", ""
		h.render(c, http.StatusOK, tmplSignup, gin.H{"Form": form, "Errors": errs})
		return
	}
	sess, err := h.Auth.StartSession(ctx, u.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	middleware.SetSessionCookie(c, h.session, sess)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) LoginForm(c *gin.Context) {
	h.render(c, http.StatusOK, tmplLogin, gin.H{"Form": forms.LoginForm{}, "Next": c.Query("next")})
}

func (h *Handler) Login(c *gin.Context) {
	var form forms.LoginForm
	_ = c.ShouldBind(&form)
	sess, errs, err := h.Auth.Login(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs.Any() {
		form.Password = ""
		h.render(c, http.StatusOK, tmplLogin, gin.H{"Form": form, "Errors": errs, "Next": form.Next})
		return
	}
	middleware.SetSessionCookie(c, h.session, sess)
	c.Redirect(http.StatusFound, middleware.SafeNext(form.Next, "/"))
}

// Logout GET 与 POST 都可退出
func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Logout(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		h.fail(c, err)
		return
	}
	middleware.ClearSessionCookie(c, h.session)
	c.Set(middleware.CurrentUserKey, nil)
	h.render(c, http.StatusOK, tmplLoggedOut, nil)
}

func (h *Handler) PasswordChangeForm(c *gin.Context) {
	h.render(c, http.StatusOK, tmplPasswordChange, gin.H{"Form": forms.PasswordChangeForm{}})
}

func (h *Handler) PasswordChange(c *gin.Context) {
	var form forms.PasswordChangeForm
	_ = c.ShouldBind(&form)
	errs, err := h.Auth.ChangePassword(c.Request.Context(), middleware.UserID(c), middleware.SessionToken(c), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if errs.Any() {
		h.render(c, http.StatusOK, tmplPasswordChange, gin.H{"Form": forms.PasswordChangeForm{}, "Errors": errs})
		return
	}
	c.Redirect(http.StatusFound, "/auth/password_change/done/")
}

func (h *Handler) PasswordChangeDone(c *gin.Context) {
	h.render(c, http.StatusOK, tmplPasswordDone, nil)
}
