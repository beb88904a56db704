package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/storage"
)

var smallGIF = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

type fixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	groups   repository.GroupRepository
	follows  repository.FollowRepository
	store    *storage.LocalStorage
	auth     AuthService
	postSvc  PostService
	follow   FollowService
	feed     *FeedService
	profiles *ProfileService
}

func newFixture(t *testing.T, janitor bool) *fixture {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := storage.NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	f := &fixture{
		db:      db,
		users:   repository.NewUserRepository(db),
		posts:   repository.NewPostRepository(db),
		groups:  repository.NewGroupRepository(db),
		follows: repository.NewFollowRepository(db),
		store:   store,
	}
	var j *ImageJanitor
	if janitor {
		j = NewImageJanitor(store, 16)
		stop := j.Start(1)
		t.Cleanup(func() { _ = stop(context.Background()) })
	}
	f.auth = NewAuthServiceWithCost(f.users, repository.NewSessionRepository(db), time.Hour, bcrypt.MinCost)
	f.postSvc = NewPostService(f.posts, f.groups, store, j, 10)
	f.follow = NewFollowService(f.follows)
	f.feed = NewFeedService(f.posts, 10)
	f.profiles = NewProfileService(f.users, f.posts, f.follows, 10)
	return f
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, PasswordHash: "x"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: slug, Slug: slug}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}

func TestAuthService_SignupLoginLogout(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	u, errs, err := f.auth.Signup(ctx, forms.SignupForm{Username: " leo ", Email: "leo@example.com", Password1: "verysecret", Password2: "verysecret"})
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, "leo", u.Username)
	assert.NotEqual(t, "verysecret", u.PasswordHash)

	_, errs, err = f.auth.Signup(ctx, forms.SignupForm{Username: "leo", Password1: "verysecret", Password2: "verysecret"})
	require.NoError(t, err)
	assert.True(t, errs.Has("username"))

	_, errs, err = f.auth.Login(ctx, forms.LoginForm{Username: "leo", Password: "wrong-one"})
	require.NoError(t, err)
	assert.True(t, errs.Has(forms.NonField))

	sess, errs, err := f.auth.Login(ctx, forms.LoginForm{Username: "leo", Password: "verysecret"})
	require.NoError(t, err)
	require.Empty(t, errs)

	who, err := f.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, who)
	assert.Equal(t, u.ID, who.ID)

	require.NoError(t, f.auth.Logout(ctx, sess.Token))
	who, err = f.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, who)
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	u, _, err := f.auth.Signup(ctx, forms.SignupForm{Username: "leo", Password1: "verysecret", Password2: "verysecret"})
	require.NoError(t, err)
	current, err := f.auth.StartSession(ctx, u.ID)
	require.NoError(t, err)
	other, err := f.auth.StartSession(ctx, u.ID)
	require.NoError(t, err)

	errs, err := f.auth.ChangePassword(ctx, u.ID, current.Token, forms.PasswordChangeForm{OldPassword: "nope", NewPassword1: "brandnew99", NewPassword2: "brandnew99"})
	require.NoError(t, err)
	assert.True(t, errs.Has("old_password"))

	errs, err = f.auth.ChangePassword(ctx, u.ID, current.Token, forms.PasswordChangeForm{OldPassword: "verysecret", NewPassword1: "brandnew99", NewPassword2: "brandnew99"})
	require.NoError(t, err)
	require.Empty(t, errs)

	_, errs, err = f.auth.Login(ctx, forms.LoginForm{Username: "leo", Password: "brandnew99"})
	require.NoError(t, err)
	assert.Empty(t, errs)

	who, err := f.auth.Authenticate(ctx, current.Token)
	require.NoError(t, err)
	assert.NotNil(t, who)
	who, err = f.auth.Authenticate(ctx, other.Token)
	require.NoError(t, err)
	assert.Nil(t, who)
}

func TestPostService_CreateValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	u := f.user(t, "alice")
	g := f.group(t, "cats")

	_, errs, err := f.postSvc.Create(ctx, u.ID, forms.PostForm{Text: "   "})
	require.NoError(t, err)
	assert.True(t, errs.Has("text"))

	_, errs, err = f.postSvc.Create(ctx, u.ID, forms.PostForm{Text: "hi", Group: "999", GroupSet: true})
	require.NoError(t, err)
	assert.True(t, errs.Has("group"))

	_, errs, err = f.postSvc.Create(ctx, u.ID, forms.PostForm{Text: "hi", Image: &forms.Upload{Filename: "a.txt", Data: []byte("plain text")}})
	require.NoError(t, err)
	assert.True(t, errs.Has("image"))

	p, errs, err := f.postSvc.Create(ctx, u.ID, forms.PostForm{Text: " hello ", Group: fmt.Sprint(g.ID), GroupSet: true, Image: &forms.Upload{Filename: "small.gif", Data: smallGIF}})
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.Equal(t, "hello", p.Text)
	require.NotNil(t, p.GroupID)
	assert.Equal(t, g.ID, *p.GroupID)
	assert.Regexp(t, `^posts/[0-9a-f-]{36}\.gif$`, p.Image)
	assert.Equal(t, "/media/"+p.Image, f.postSvc.ImageURL(p.Image))

	rc, err := f.store.Read(ctx, p.Image)
	require.NoError(t, err)
	_ = rc.Close()
}

func TestPostService_UpdatePolicy(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	author := f.user(t, "author")
	other := f.user(t, "other")
	g := f.group(t, "cats")

	p, _, err := f.postSvc.Create(ctx, author.ID, forms.PostForm{Text: "first draft", Group: fmt.Sprint(g.ID), GroupSet: true})
	require.NoError(t, err)

	out, err := f.postSvc.Update(ctx, other.ID, p.ID, forms.PostForm{Text: "hijacked"})
	require.NoError(t, err)
	assert.Equal(t, EditDenied, out.Result)
	got, err := f.postSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first draft", got.Text)

	out, err = f.postSvc.Update(ctx, author.ID, p.ID, forms.PostForm{Text: ""})
	require.NoError(t, err)
	assert.Equal(t, EditInvalid, out.Result)
	assert.True(t, out.Errors.Has("text"))

	// 没带 group 字段：保留分组与作者
	out, err = f.postSvc.Update(ctx, author.ID, p.ID, forms.PostForm{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, EditApplied, out.Result)
	got, err = f.postSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Equal(t, author.ID, got.AuthorID)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, g.ID, *got.GroupID)

	// 带空 group：清掉分组
	out, err = f.postSvc.Update(ctx, author.ID, p.ID, forms.PostForm{Text: "edited", GroupSet: true})
	require.NoError(t, err)
	assert.Equal(t, EditApplied, out.Result)
	got, err = f.postSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	_, err = f.postSvc.Update(ctx, author.ID, 4242, forms.PostForm{Text: "x"})
	assert.ErrorIs(t, err, repository.ErrPostNotFound)
}

func TestPostService_ReplacedImageIsCleanedUp(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	u := f.user(t, "alice")

	p, _, err := f.postSvc.Create(ctx, u.ID, forms.PostForm{Text: "pic", Image: &forms.Upload{Filename: "a.gif", Data: smallGIF}})
	require.NoError(t, err)
	old := p.Image

	out, err := f.postSvc.Update(ctx, u.ID, p.ID, forms.PostForm{Text: "pic", Image: &forms.Upload{Filename: "b.gif", Data: smallGIF}})
	require.NoError(t, err)
	require.Equal(t, EditApplied, out.Result)
	assert.NotEqual(t, old, out.Post.Image)

	janitor := f.postSvc.(*postService).janitor
	select {
	case key := <-janitor.Done():
		assert.Equal(t, old, key)
	case <-time.After(5 * time.Second):
		t.Fatal("old image was not removed")
	}
	_, err = f.store.Read(ctx, old)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFollowService_Results(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.user(t, "a")
	b := f.user(t, "b")

	res, err := f.follow.Follow(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowSelf, res)

	res, err = f.follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowCreated, res)

	res, err = f.follow.Follow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowDuplicate, res)

	ok, err := f.follow.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	un, err := f.follow.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, UnfollowDeleted, un)
	un, err = f.follow.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, UnfollowMissing, un)
}

func TestFeedService_FollowUnfollow(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	reader := f.user(t, "reader")
	writer := f.user(t, "writer")
	bystander := f.user(t, "bystander")

	_, _, err := f.postSvc.Create(ctx, writer.ID, forms.PostForm{Text: "from writer"})
	require.NoError(t, err)
	_, _, err = f.postSvc.Create(ctx, reader.ID, forms.PostForm{Text: "from reader"})
	require.NoError(t, err)

	page, err := f.feed.Build(ctx, reader.ID, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)

	_, err = f.follow.Follow(ctx, reader.ID, writer.ID)
	require.NoError(t, err)
	page, err = f.feed.Build(ctx, reader.ID, "1")
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "from writer", page.Items[0].Text)

	// 未关注的人看不到
	page, err = f.feed.Build(ctx, bystander.ID, "1")
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = f.follow.Unfollow(ctx, reader.ID, writer.ID)
	require.NoError(t, err)
	page, err = f.feed.Build(ctx, reader.ID, "1")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestProfileService_Load(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	author := f.user(t, "author")
	fan := f.user(t, "fan")
	for i := 0; i < 13; i++ {
		_, _, err := f.postSvc.Create(ctx, author.ID, forms.PostForm{Text: fmt.Sprintf("post %d", i)})
		require.NoError(t, err)
	}
	_, err := f.follow.Follow(ctx, fan.ID, author.ID)
	require.NoError(t, err)

	p, err := f.profiles.Load(ctx, "author", fan.ID, "1")
	require.NoError(t, err)
	assert.Len(t, p.Page.Items, 10)
	assert.Equal(t, int64(13), p.TotalPosts)
	assert.Equal(t, int64(1), p.Followers)
	assert.True(t, p.IsFollowing)

	p, err = f.profiles.Load(ctx, "author", 0, "2")
	require.NoError(t, err)
	assert.Len(t, p.Page.Items, 3)
	assert.False(t, p.IsFollowing)

	_, err = f.profiles.Load(ctx, "ghost", 0, "")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestCommentService_Add(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	u := f.user(t, "alice")
	p, _, err := f.postSvc.Create(ctx, u.ID, forms.PostForm{Text: "post"})
	require.NoError(t, err)

	svc := NewCommentService(repository.NewCommentRepository(f.db), f.posts)
	_, errs, err := svc.Add(ctx, p.ID, u.ID, forms.CommentForm{Text: " "})
	require.NoError(t, err)
	assert.True(t, errs.Has("text"))

	c, errs, err := svc.Add(ctx, p.ID, u.ID, forms.CommentForm{Text: "nice"})
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.NotZero(t, c.ID)

	_, _, err = svc.Add(ctx, 999, u.ID, forms.CommentForm{Text: "nice"})
	assert.ErrorIs(t, err, repository.ErrPostNotFound)

	list, err := svc.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGroupService_Create(t *testing.T) {
	f := newFixture(t, false)
	svc := NewGroupService(f.groups)
	ctx := context.Background()

	g, errs, err := svc.Create(ctx, forms.GroupForm{Title: "Cats", Slug: "cats"})
	require.NoError(t, err)
	require.Empty(t, errs)
	assert.NotZero(t, g.ID)

	_, errs, err = svc.Create(ctx, forms.GroupForm{Title: "Cats again", Slug: "cats"})
	require.NoError(t, err)
	assert.True(t, errs.Has("slug"))

	_, errs, err = svc.Create(ctx, forms.GroupForm{Title: "", Slug: "bad slug"})
	require.NoError(t, err)
	assert.True(t, errs.Has("title"))
	assert.True(t, errs.Has("slug"))
}
