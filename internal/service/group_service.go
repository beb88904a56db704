package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// GroupService 社群维护（CLI）与查询
type GroupService interface {
	Create(ctx context.Context, form forms.GroupForm) (*model.Group, forms.Errors, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
}

type groupService struct {
	groups repository.GroupRepository
}

func NewGroupService(groups repository.GroupRepository) GroupService {
	return &groupService{groups: groups}
}

func (s *groupService) Create(ctx context.Context, form forms.GroupForm) (*model.Group, forms.Errors, error) {
	form.Clean()
	if errs := forms.Check(&form); errs.Any() {
		return nil, errs, nil
	}
	g := &model.Group{Title: form.Title, Slug: form.Slug, Description: form.Description}
	if err := s.groups.Create(ctx, g); err != nil {
		if errors.Is(err, repository.ErrGroupSlugExists) {
			return nil, forms.Errors{"slug": "Group with this slug already exists."}, nil
		}
		return nil, nil, err
	}
	logger.Ctx(ctx).Info("group created", zap.Uint("group_id", g.ID), zap.String("slug", g.Slug))
	return g, nil, nil
}

func (s *groupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	return s.groups.GetBySlug(ctx, slug)
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groups.List(ctx)
}
