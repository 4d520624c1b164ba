package permits

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrena-pm/terrena/internal/shared"
)

type memStore struct {
	templates map[string]*Template
	items     map[string][]ProjectItem
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{
		templates: make(map[string]*Template),
		items:     make(map[string][]ProjectItem),
	}
}

func (s *memStore) CreateTemplate(_ context.Context, tpl *Template) error {
	s.templates[tpl.ID] = tpl
	return nil
}

func (s *memStore) FindTemplate(_ context.Context, id string) (*Template, error) {
	if tpl, ok := s.templates[id]; ok {
		return tpl, nil
	}
	return nil, shared.ErrNotFound
}

func (s *memStore) InsertProjectItems(_ context.Context, items []ProjectItem) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, item := range items {
		s.items[item.ProjectID] = append(s.items[item.ProjectID], item)
	}
	return nil
}

func (s *memStore) ListProjectItems(_ context.Context, projectID string) ([]ProjectItem, error) {
	return s.items[projectID], nil
}

func validItems() []TemplateItem {
	return []TemplateItem{
		{Code: "LIC-1", Title: "Licencia de obra", Duration: "2 meses"},
		{Code: "LIC-2", Title: "Acta de replanteo", DependsOn: []string{"LIC-1"}, Duration: "15"},
	}
}

func TestCreateTemplateStoresValid(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	tpl, problems, err := svc.CreateTemplate(context.Background(), "acme", "  obra nueva ", validItems())
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.NotNil(t, tpl)
	assert.Equal(t, "obra nueva", tpl.Name)
	assert.Equal(t, "acme", tpl.Tenant)
	assert.NotEmpty(t, tpl.ID)
	assert.Contains(t, store.templates, tpl.ID)
}

func TestCreateTemplateRejectsInvalid(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	tpl, problems, err := svc.CreateTemplate(context.Background(), "acme", "broken", []TemplateItem{
		{Code: "A", Title: "a", DependsOn: []string{"MISSING"}},
	})
	require.NoError(t, err)
	assert.Nil(t, tpl)
	assert.Equal(t, []string{"dependency A -> MISSING references a missing code"}, problems)
	assert.Empty(t, store.templates, "invalid template must not be persisted")
}

func TestGetTemplateTenantScoped(t *testing.T) {
	store := newMemStore()
	store.templates["tpl-1"] = &Template{ID: "tpl-1", Tenant: "rival", Items: validItems()}
	svc := NewService(store)

	_, err := svc.GetTemplate(context.Background(), "acme", "tpl-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, _, err = svc.CheckTemplate(context.Background(), "acme", "tpl-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	tpl, err := svc.GetTemplate(context.Background(), "rival", "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "tpl-1", tpl.ID)
}

func TestInstantiateCopiesItems(t *testing.T) {
	store := newMemStore()
	store.templates["tpl-1"] = &Template{
		ID:        "tpl-1",
		Tenant:    "acme",
		Name:      "obra nueva",
		Items:     validItems(),
		CreatedAt: time.Now().UTC(),
	}
	svc := NewService(store)

	items, err := svc.Instantiate(context.Background(), "tpl-1", "p1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, item := range items {
		assert.NotEmpty(t, item.ID)
		assert.Equal(t, "p1", item.ProjectID)
		assert.Equal(t, "tpl-1", item.TemplateID)
		assert.Equal(t, ItemPending, item.Status)
	}
	assert.Equal(t, 60, items[0].DueInDays)
	assert.Equal(t, 15, items[1].DueInDays)
	assert.Equal(t, []string{"LIC-1"}, items[1].DependsOn)
	assert.Len(t, store.items["p1"], 2)
}

// The copies are independent of the template: two instantiations of the
// same template never share item ids.
func TestInstantiateIndependentCopies(t *testing.T) {
	store := newMemStore()
	store.templates["tpl-1"] = &Template{ID: "tpl-1", Items: validItems()}
	svc := NewService(store)

	first, err := svc.Instantiate(context.Background(), "tpl-1", "p1")
	require.NoError(t, err)
	second, err := svc.Instantiate(context.Background(), "tpl-1", "p2")
	require.NoError(t, err)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestInstantiateRefusesInvalidTemplate(t *testing.T) {
	store := newMemStore()
	store.templates["tpl-bad"] = &Template{ID: "tpl-bad", Items: []TemplateItem{
		{Code: "A", Title: "a", DependsOn: []string{"GONE"}},
	}}
	svc := NewService(store)

	_, err := svc.Instantiate(context.Background(), "tpl-bad", "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GONE")
	assert.Empty(t, store.items["p1"])
}

func TestInstantiateUnknownTemplate(t *testing.T) {
	svc := NewService(newMemStore())
	_, err := svc.Instantiate(context.Background(), "ghost", "p1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNotFoundMatchesWrappedSentinel(t *testing.T) {
	assert.True(t, NotFound(shared.ErrNotFound))
	assert.True(t, NotFound(fmt.Errorf("load template: %w", shared.ErrNotFound)))
	assert.False(t, NotFound(errors.New("connection refused")))
	assert.False(t, NotFound(nil))
}

func TestListProjectItemsNeverNil(t *testing.T) {
	svc := NewService(newMemStore())
	items, err := svc.ListProjectItems(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
