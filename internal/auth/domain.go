package auth

import "time"

// ActorRecord is the persisted account backing an authenticated actor. The
// record is read-only to this service: registration and administrative
// approval/blocking happen elsewhere.
type ActorRecord struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Status       string
	Tenant       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
