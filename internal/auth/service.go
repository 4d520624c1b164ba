package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/terrena-pm/terrena/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Inactive accounts fail
// the same way as bad passwords so login responses do not leak status.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*ActorRecord, error) {
	actor, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return actor, nil
}

// FindActor loads the persisted record for a subject id.
func (s *Service) FindActor(ctx context.Context, id string) (*ActorRecord, error) {
	return s.repo.FindByID(ctx, id)
}
