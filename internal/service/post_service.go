package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/storage"
)

// EditResult 编辑帖子的结果
type EditResult int

const (
	EditApplied EditResult = iota + 1
	// EditDenied 编辑者不是作者，什么都没改
	EditDenied
	// EditInvalid 表单不合法，Errors 里有字段错误
	EditInvalid
)

func (r EditResult) String() string {
	switch r {
	case EditApplied:
		return "applied"
	case EditDenied:
		return "denied"
	case EditInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// EditOutcome Update 的完整返回
type EditOutcome struct {
	Result EditResult
	Errors forms.Errors
	Post   *model.Post
}

// 受支持的图片类型 → 扩展名
var imageTypes = map[string]string{
	"image/gif":  ".gif",
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

const invalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// PostService 帖子读写与编辑权限
type PostService interface {
	Create(ctx context.Context, authorID uint, form forms.PostForm) (*model.Post, forms.Errors, error)
	Update(ctx context.Context, editorID, postID uint, form forms.PostForm) (EditOutcome, error)
	Get(ctx context.Context, id uint) (*model.Post, error)
	List(ctx context.Context, f repository.PostFilter, rawPage string) (pagination.Page[*model.Post], error)
	CountByAuthor(ctx context.Context, authorID uint) (int64, error)
	ImageURL(key string) string
}

type postService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	store    storage.Storage
	janitor  *ImageJanitor
	pageSize int
}

// NewPostService janitor 可为 nil，此时旧图片同步删除
func NewPostService(posts repository.PostRepository, groups repository.GroupRepository, store storage.Storage, janitor *ImageJanitor, pageSize int) PostService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &postService{posts: posts, groups: groups, store: store, janitor: janitor, pageSize: pageSize}
}

func (s *postService) Create(ctx context.Context, authorID uint, form forms.PostForm) (*model.Post, forms.Errors, error) {
	groupID, errs, err := s.clean(ctx, &form)
	if err != nil || errs.Any() {
		return nil, errs, err
	}

	p := &model.Post{AuthorID: authorID, Text: form.Text, GroupID: groupID}
	if form.Image != nil {
		key, err := s.saveImage(ctx, form.Image)
		if err != nil {
			return nil, nil, err
		}
		p.Image = key
	}
	if err := s.posts.Create(ctx, p); err != nil {
		logger.Ctx(ctx).Error("failed to create post", zap.Uint("user_id", authorID), zap.Error(err))
		s.discard(ctx, p.Image)
		return nil, nil, err
	}

	audit(ctx, ActionPostCreate, authorID, "post created", zap.Uint("post_id", p.ID))
	return p, nil, nil
}

func (s *postService) Update(ctx context.Context, editorID, postID uint, form forms.PostForm) (EditOutcome, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return EditOutcome{}, err
	}
	if p.AuthorID != editorID {
		logger.Ctx(ctx).Info("edit denied", zap.Uint("user_id", editorID), zap.Uint("post_id", postID))
		return EditOutcome{Result: EditDenied, Post: p}, nil
	}

	groupID, errs, err := s.clean(ctx, &form)
	if err != nil {
		return EditOutcome{}, err
	}
	if errs.Any() {
		return EditOutcome{Result: EditInvalid, Errors: errs, Post: p}, nil
	}

	updated := *p
	updated.Text = form.Text
	if form.GroupSet {
		updated.GroupID = groupID
		updated.Group = nil
	}
	oldImage := p.Image
	switch {
	case form.Image != nil:
		key, err := s.saveImage(ctx, form.Image)
		if err != nil {
			return EditOutcome{}, err
		}
		updated.Image = key
	case form.ClearImage:
		updated.Image = ""
	}

	if err := s.posts.Update(ctx, &updated); err != nil {
		logger.Ctx(ctx).Error("failed to update post", zap.Uint("post_id", postID), zap.Error(err))
		if updated.Image != oldImage {
			s.discard(ctx, updated.Image)
		}
		return EditOutcome{}, err
	}
	if oldImage != "" && updated.Image != oldImage {
		s.discard(ctx, oldImage)
	}

	audit(ctx, ActionPostEdit, editorID, "post edited", zap.Uint("post_id", postID))
	return EditOutcome{Result: EditApplied, Post: &updated}, nil
}

func (s *postService) Get(ctx context.Context, id uint) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *postService) List(ctx context.Context, f repository.PostFilter, rawPage string) (pagination.Page[*model.Post], error) {
	return listPosts(ctx, s.posts, f, rawPage, s.pageSize)
}

func (s *postService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.posts.CountByAuthor(ctx, authorID)
}

func (s *postService) ImageURL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}

// clean 校验文本、分组与图片类型，返回解析后的分组 id
func (s *postService) clean(ctx context.Context, form *forms.PostForm) (*uint, forms.Errors, error) {
	form.Clean()
	errs := forms.Check(form)

	var groupID *uint
	if form.Group != "" {
		id, err := strconv.ParseUint(form.Group, 10, 64)
		if err != nil {
			errs.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		} else if g, err := s.groups.GetByID(ctx, uint(id)); err != nil {
			if !errors.Is(err, repository.ErrGroupNotFound) {
				return nil, nil, err
			}
			errs.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			groupID = &g.ID
		}
	}

	if form.Image != nil {
		if _, ok := imageTypes[sniff(form.Image.Data)]; !ok {
			errs.Add("image", invalidImage)
		}
	}
	return groupID, errs, nil
}

func (s *postService) saveImage(ctx context.Context, up *forms.Upload) (string, error) {
	ct := sniff(up.Data)
	key := "posts/" + uuid.NewString() + imageTypes[ct]
	if err := s.store.Write(ctx, key, bytes.NewReader(up.Data), int64(len(up.Data)), ct); err != nil {
		logger.Ctx(ctx).Error("failed to store image", zap.String("key", key), zap.Error(err))
		return "", err
	}
	return key, nil
}

func (s *postService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if s.janitor != nil {
		s.janitor.Enqueue(key)
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Ctx(ctx).Warn("failed to delete image", zap.String("key", key), zap.Error(err))
	}
}

func sniff(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return http.DetectContentType(data)
}

// listPosts 先 count 再取一页；两次查询之间的并发写入不做保证
func listPosts(ctx context.Context, repo repository.PostRepository, f repository.PostFilter, rawPage string, size int) (pagination.Page[*model.Post], error) {
	total, err := repo.Count(ctx, f)
	if err != nil {
		return pagination.Page[*model.Post]{}, err
	}
	w := pagination.Resolve(rawPage, total, size)
	items, err := repo.List(ctx, f, w.Offset, w.Limit)
	if err != nil {
		return pagination.Page[*model.Post]{}, err
	}
	return pagination.New(items, w), nil
}
