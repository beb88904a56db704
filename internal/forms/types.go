package forms

import "strings"

type SignupForm struct {
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Username  string `form:"username" validate:"required,max=150,username"`
	Email     string `form:"email" validate:"omitempty,email"`
	Password1 string `form:"password1" validate:"required,min=8,pwbytes"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

func (f *SignupForm) Clean() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func (f *LoginForm) Clean() { f.Username = strings.TrimSpace(f.Username) }

type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required,min=8,pwbytes"`
	NewPassword2 string `form:"new_password2" validate:"required,eqfield=NewPassword1"`
}

// Upload 已读入内存的上传文件
type Upload struct {
	Filename string
	Data     []byte
}

type PostForm struct {
	Text  string `form:"text" validate:"required"`
	Group string `form:"group"`
	// GroupSet 请求里是否带了 group 字段；编辑时未带则保留原分组
	GroupSet   bool    `form:"-"`
	ClearImage bool    `form:"image-clear"`
	Image      *Upload `form:"-"`
}

func (f *PostForm) Clean() {
	f.Text = strings.TrimSpace(f.Text)
	f.Group = strings.TrimSpace(f.Group)
}

type CommentForm struct {
	Text string `form:"text" validate:"required"`
}

func (f *CommentForm) Clean() { f.Text = strings.TrimSpace(f.Text) }

type GroupForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description"`
}

func (f *GroupForm) Clean() {
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Description = strings.TrimSpace(f.Description)
}
