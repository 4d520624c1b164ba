package permits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terrena-pm/terrena/internal/shared"
)

// Store is the persistence port the service depends on.
type Store interface {
	CreateTemplate(ctx context.Context, tpl *Template) error
	FindTemplate(ctx context.Context, id string) (*Template, error)
	InsertProjectItems(ctx context.Context, items []ProjectItem) error
	ListProjectItems(ctx context.Context, projectID string) ([]ProjectItem, error)
}

// Service wraps permit template business rules.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateTemplate validates and persists a template. The returned string
// slice carries every validation problem; the template is stored only when
// the slice is empty.
func (s *Service) CreateTemplate(ctx context.Context, tenant, name string, items []TemplateItem) (*Template, []string, error) {
	tpl := &Template{
		ID:        uuid.NewString(),
		Tenant:    tenant,
		Name:      strings.TrimSpace(name),
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}
	if problems := Validate(*tpl); len(problems) > 0 {
		return nil, problems, nil
	}
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		return nil, nil, err
	}
	return tpl, nil, nil
}

// GetTemplate fetches a template by id, scoped to the caller's tenant. A
// template owned by another tenant is reported as missing, not forbidden,
// so its existence does not leak across tenants.
func (s *Service) GetTemplate(ctx context.Context, tenant, id string) (*Template, error) {
	tpl, err := s.store.FindTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.Tenant != tenant {
		return nil, shared.ErrNotFound
	}
	return tpl, nil
}

// CheckTemplate re-validates a stored template before instantiation.
func (s *Service) CheckTemplate(ctx context.Context, tenant, id string) (*Template, []string, error) {
	tpl, err := s.GetTemplate(ctx, tenant, id)
	if err != nil {
		return nil, nil, err
	}
	return tpl, Validate(*tpl), nil
}

// Instantiate copies the template items into per-project permit items. Each
// copy carries its own status, starting pending, independent of the
// template. Called from the background worker.
func (s *Service) Instantiate(ctx context.Context, templateID, projectID string) ([]ProjectItem, error) {
	tpl, err := s.store.FindTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if problems := Validate(*tpl); len(problems) > 0 {
		return nil, fmt.Errorf("permits: template %s invalid: %s", templateID, strings.Join(problems, "; "))
	}
	now := time.Now().UTC()
	items := make([]ProjectItem, 0, len(tpl.Items))
	for _, item := range tpl.Items {
		items = append(items, ProjectItem{
			ID:         uuid.NewString(),
			ProjectID:  projectID,
			TemplateID: tpl.ID,
			Code:       item.Code,
			Title:      item.Title,
			DependsOn:  item.DependsOn,
			Status:     ItemPending,
			DueInDays:  DurationDays(item.Duration),
			CreatedAt:  now,
		})
	}
	if err := s.store.InsertProjectItems(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListProjectItems returns the instantiated items for a project.
func (s *Service) ListProjectItems(ctx context.Context, projectID string) ([]ProjectItem, error) {
	items, err := s.store.ListProjectItems(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []ProjectItem{}
	}
	return items, nil
}

// NotFound reports whether err is the store's missing-record sentinel.
func NotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
