package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/terrena-pm/terrena/internal/authz"
	"github.com/terrena-pm/terrena/internal/platform/httpx"
	"github.com/terrena-pm/terrena/internal/shared"
)

// Repository provides PostgreSQL backed persistence with a Redis
// read-through cache for access snapshots. The cache keeps the guard path
// at one database read per request in the common case.
type Repository struct {
	pool     *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewRepository constructs a repository. The cache client may be nil; the
// repository then reads straight from the database.
func NewRepository(pool *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration) *Repository {
	return &Repository{pool: pool, cache: cache, cacheTTL: cacheTTL}
}

const projectColumns = `id, tenant, name, publish_status, assigned_users, promoters, commercial,
	legal, technical, management, partners, finance, accounting, assignments, created_at, updated_at`

// Create inserts a new project.
func (r *Repository) Create(ctx context.Context, p *Project) error {
	assignments, err := json.Marshal(p.Assignments)
	if err != nil {
		return fmt.Errorf("projects: encode assignments: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO projects (id, tenant, name, publish_status, assigned_users, promoters, commercial,
			legal, technical, management, partners, finance, accounting, assignments, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)`,
		p.ID, p.Tenant, p.Name, p.PublishStatus, p.AssignedUsers, p.Promoters, p.Commercial,
		p.Legal, p.Technical, p.Management, p.Partners, p.Finance, p.Accounting, assignments, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_projects_tenant_name" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByID fetches a project by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*Project, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

// List returns all projects for a tenant ordered by creation time.
func (r *Repository) List(ctx context.Context, tenant string) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE tenant = $1 ORDER BY created_at DESC`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Project
	for rows.Next() {
		p, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePublishStatus sets the lifecycle state and drops the cached
// snapshot so the guard path sees the change immediately.
func (r *Repository) UpdatePublishStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET publish_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	r.invalidateSnapshot(ctx, id)
	return nil
}

// AccessSnapshot loads the decision-engine view of a project, preferring
// the cache.
func (r *Repository) AccessSnapshot(ctx context.Context, id string) (*authz.Project, error) {
	key := snapshotKey(id)
	if r.cache != nil {
		if data, err := r.cache.Get(ctx, key).Bytes(); err == nil {
			var snapshot authz.Project
			if err := json.Unmarshal(data, &snapshot); err == nil {
				return &snapshot, nil
			}
		}
	}

	project, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snapshot := project.AccessSnapshot()

	if r.cache != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			_ = r.cache.Set(ctx, key, data, r.cacheTTL).Err()
		}
	}
	return snapshot, nil
}

func (r *Repository) invalidateSnapshot(ctx context.Context, id string) {
	if r.cache != nil {
		_ = r.cache.Del(ctx, snapshotKey(id)).Err()
	}
}

func snapshotKey(id string) string {
	return "projects:snapshot:" + id
}

func (r *Repository) scanOne(row pgx.Row) (*Project, error) {
	var p Project
	var assignments []byte
	err := row.Scan(&p.ID, &p.Tenant, &p.Name, &p.PublishStatus,
		&p.AssignedUsers, &p.Promoters, &p.Commercial, &p.Legal, &p.Technical,
		&p.Management, &p.Partners, &p.Finance, &p.Accounting, &assignments,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(assignments) > 0 {
		if err := json.Unmarshal(assignments, &p.Assignments); err != nil {
			return nil, fmt.Errorf("projects: decode assignments: %w", err)
		}
	}
	return &p, nil
}

var _ interface {
	AccessSnapshot(ctx context.Context, id string) (*authz.Project, error)
} = (*Repository)(nil)
