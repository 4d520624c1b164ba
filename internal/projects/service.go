package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terrena-pm/terrena/internal/authz"
	"github.com/terrena-pm/terrena/internal/platform/httpx"
)

// Store is the persistence port the service depends on.
type Store interface {
	Create(ctx context.Context, p *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context, tenant string) ([]Project, error)
	UpdatePublishStatus(ctx context.Context, id, status string) error
}

// Service wraps project business rules.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registers a new project in draft state for the given tenant.
func (s *Service) Create(ctx context.Context, tenant, name string, assignments map[string][]string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name required", httpx.ErrValidation)
	}
	now := time.Now().UTC()
	project := &Project{
		ID:            uuid.NewString(),
		Tenant:        tenant,
		Name:          name,
		PublishStatus: authz.PublishDraft,
		Assignments:   assignments,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.store.FindByID(ctx, id)
}

// List returns the tenant's projects.
func (s *Service) List(ctx context.Context, tenant string) ([]Project, error) {
	return s.store.List(ctx, tenant)
}

// SetPublishStatus moves a project through its lifecycle.
func (s *Service) SetPublishStatus(ctx context.Context, id, status string) error {
	status = strings.ToLower(strings.TrimSpace(status))
	if !ValidPublishStatus(status) {
		return fmt.Errorf("%w: unknown publish status %q", httpx.ErrValidation, status)
	}
	return s.store.UpdatePublishStatus(ctx, id, status)
}
