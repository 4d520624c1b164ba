package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrena-pm/terrena/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByID(ctx context.Context, id string) (*ActorRecord, error)
	FindByEmail(ctx context.Context, email string) (*ActorRecord, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const actorColumns = `id, email, name, password_hash, role, status, tenant, created_at, updated_at`

// FindByID fetches an actor by its opaque identifier.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*ActorRecord, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE id = $1`, id))
}

// FindByEmail fetches an actor by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*ActorRecord, error) {
	return r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE lower(email) = lower($1)`, email))
}

func (r *PGRepository) scanOne(row pgx.Row) (*ActorRecord, error) {
	var rec ActorRecord
	err := row.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.PasswordHash,
		&rec.Role, &rec.Status, &rec.Tenant, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

var _ Repository = (*PGRepository)(nil)
