package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/database"
)

func newTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := database.OpenMemory(tb.Name())
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = database.Close(db) })
	return db
}

func mustUser(tb testing.TB, db *gorm.DB, username string) *model.User {
	tb.Helper()
	u := &model.User{Username: username, PasswordHash: "x"}
	require.NoError(tb, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func mustGroup(tb testing.TB, db *gorm.DB, slug string) *model.Group {
	tb.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(tb, NewGroupRepository(db).Create(context.Background(), g))
	return g
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := mustUser(t, db, "leo")
	assert.NotZero(t, u.ID)

	err := repo.Create(ctx, &model.User{Username: "leo", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	got, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "h"), ErrUserNotFound)
}

func TestSessionRepository_ExpiryAndRotation(t *testing.T) {
	db := newTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	u := mustUser(t, db, "leo")
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &model.Session{Token: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.Session{Token: "other", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.Session{Token: "dead", UserID: u.ID, ExpiresAt: now.Add(-time.Minute)}))

	s, err := repo.Get(ctx, "live", now)
	require.NoError(t, err)
	assert.Equal(t, "leo", s.User.Username)

	_, err = repo.Get(ctx, "dead", now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	// 过期会话已被惰性删除
	var cnt int64
	require.NoError(t, db.Model(&model.Session{}).Where("token = ?", "dead").Count(&cnt).Error)
	assert.Zero(t, cnt)

	require.NoError(t, repo.DeleteOthers(ctx, u.ID, "live"))
	_, err = repo.Get(ctx, "other", now)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = repo.Get(ctx, "live", now)
	assert.NoError(t, err)

	n, err := repo.DeleteExpired(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGroupRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	g := mustGroup(t, db, "cats")
	assert.ErrorIs(t, repo.Create(ctx, &model.Group{Title: "dup", Slug: "cats"}), ErrGroupSlugExists)

	got, err := repo.GetBySlug(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)

	_, err = repo.GetBySlug(ctx, "dogs")
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	mustGroup(t, db, "birds")
	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestPostRepository_ListOrderingAndFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")
	g := mustGroup(t, db, "cats")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	mk := func(author *model.User, groupID *uint, text string, at time.Time) *model.Post {
		p := &model.Post{AuthorID: author.ID, GroupID: groupID, Text: text, CreatedAt: at}
		require.NoError(t, repo.Create(ctx, p))
		return p
	}
	p1 := mk(alice, &g.ID, "first", base)
	p2 := mk(bob, nil, "second", base.Add(time.Minute))
	// 同一时间戳按 id 倒序
	p3 := mk(alice, nil, "third", base.Add(time.Minute))

	all, err := repo.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{p3.ID, p2.ID, p1.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "alice", all[0].Author.Username)

	byGroup, err := repo.List(ctx, PostFilter{GroupID: g.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, "cats", byGroup[0].Group.Slug)

	n, err := repo.CountByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	page, err := repo.List(ctx, PostFilter{}, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestPostRepository_UpdateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	u := mustUser(t, db, "alice")
	g := mustGroup(t, db, "cats")

	p := &model.Post{AuthorID: u.ID, GroupID: &g.ID, Text: "before"}
	require.NoError(t, repo.Create(ctx, p))
	created := p.CreatedAt

	p.Text = "after"
	p.GroupID = nil
	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, u.ID, got.AuthorID)
	assert.WithinDuration(t, created, got.CreatedAt, time.Second)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.Post{ID: 999, Text: "x"}), ErrPostNotFound)
}

func TestPostRepository_GroupDeleteSetsNull(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	u := mustUser(t, db, "alice")
	g := mustGroup(t, db, "cats")

	p := &model.Post{AuthorID: u.ID, GroupID: &g.ID, Text: "tagged"}
	require.NoError(t, repo.Create(ctx, p))
	require.NoError(t, db.Delete(&model.Group{}, g.ID).Error)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.False(t, got.HasGroup())
}

func TestCommentRepository_OldestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	u := mustUser(t, db, "alice")
	p := &model.Post{AuthorID: u.ID, Text: "post"}
	require.NoError(t, NewPostRepository(db).Create(ctx, p))

	repo := NewCommentRepository(db)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		c := &model.Comment{PostID: p.ID, AuthorID: u.ID, Text: fmt.Sprintf("c%d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, c))
	}

	list, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c0", list[0].Text)
	assert.Equal(t, "c2", list[2].Text)
	assert.Equal(t, "alice", list[0].Author.Username)
}

func TestFollowRepository_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	a := mustUser(t, db, "a")
	b := mustUser(t, db, "b")

	created, err := repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	ok, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := repo.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ids, err := repo.ListAuthors(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids)

	deleted, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPostRepository_FeedFilter(t *testing.T) {
	db := newTestDB(t)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	viewer := mustUser(t, db, "viewer")
	author := mustUser(t, db, "author")
	stranger := mustUser(t, db, "stranger")
	for _, u := range []*model.User{viewer, author, stranger} {
		require.NoError(t, posts.Create(ctx, &model.Post{AuthorID: u.ID, Text: "by " + u.Username}))
	}

	feed := PostFilter{FollowerID: viewer.ID}
	n, err := posts.Count(ctx, feed)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = follows.Create(ctx, viewer.ID, author.ID)
	require.NoError(t, err)
	// 绕过服务层写入的自关注不应出现在 feed 中
	_, err = follows.Create(ctx, viewer.ID, viewer.ID)
	require.NoError(t, err)

	list, err := posts.List(ctx, feed, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "by author", list[0].Text)
}
