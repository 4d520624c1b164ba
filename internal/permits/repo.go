package permits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrena-pm/terrena/internal/platform/db"
	"github.com/terrena-pm/terrena/internal/shared"
)

// Repository provides PostgreSQL backed persistence for templates and
// instantiated project items.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTemplate inserts a new template with its item graph.
func (r *Repository) CreateTemplate(ctx context.Context, tpl *Template) error {
	items, err := json.Marshal(tpl.Items)
	if err != nil {
		return fmt.Errorf("permits: encode items: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO permit_templates (id, tenant, name, items, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		tpl.ID, tpl.Tenant, tpl.Name, items, tpl.CreatedAt)
	return err
}

// FindTemplate fetches a template by id.
func (r *Repository) FindTemplate(ctx context.Context, id string) (*Template, error) {
	var tpl Template
	var items []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant, name, items, created_at FROM permit_templates WHERE id = $1`, id).
		Scan(&tpl.ID, &tpl.Tenant, &tpl.Name, &items, &tpl.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(items, &tpl.Items); err != nil {
		return nil, fmt.Errorf("permits: decode items: %w", err)
	}
	return &tpl, nil
}

// InsertProjectItems persists the instantiated copies atomically: a partial
// instantiation would leave the project checklist inconsistent.
func (r *Repository) InsertProjectItems(ctx context.Context, items []ProjectItem) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, item := range items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO project_permit_items
					(id, project_id, template_id, code, title, depends_on, status, due_in_days, created_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				item.ID, item.ProjectID, item.TemplateID, item.Code, item.Title,
				item.DependsOn, item.Status, item.DueInDays, item.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListProjectItems returns the instantiated items for a project.
func (r *Repository) ListProjectItems(ctx context.Context, projectID string) ([]ProjectItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, template_id, code, title, depends_on, status, due_in_days, created_at
		FROM project_permit_items WHERE project_id = $1 ORDER BY created_at, code`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProjectItem
	for rows.Next() {
		var item ProjectItem
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.TemplateID, &item.Code,
			&item.Title, &item.DependsOn, &item.Status, &item.DueInDays, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
