package person

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("person not found")
	// ErrPersonIDTaken surfaces a uniqueness violation on the match key.
	// Fatal for the offending row, never for the batch.
	ErrPersonIDTaken = errors.New("person id already taken")
	// ErrSaveVetoed is returned when a pre-save stage aborts the write.
	ErrSaveVetoed = errors.New("save vetoed by pre-hook")
)

// Scope restricts which Persons a search considers.
type Scope string

const (
	ScopeAll      Scope = "all"
	ScopeEmployee Scope = "employee"
	ScopeStudent  Scope = "student"
	ScopeNetID    Scope = "uwnetid"
)

// FindParams drives Search. Every term must prefix-match net-id, first
// name, or last name; an empty Terms slice returns the full scoped
// listing (the prefetch path).
type FindParams struct {
	Terms []string
	Scope Scope
	Limit int
}

type Repository interface {
	GetByPersonID(ctx context.Context, personID string) (*Person, error)
	GetByNetID(ctx context.Context, netID string) (*Person, error)
	// FindOrCreate returns the Person matching the key value, or a new,
	// unsaved, zero-valued Person carrying the key.
	FindOrCreate(ctx context.Context, field MatchField, value string) (*Person, error)
	// Save persists create-or-update plus any pending Akas in one
	// transaction, running the pre/post stage pipeline around the write.
	Save(ctx context.Context, p *Person) error
	Search(ctx context.Context, params *FindParams) ([]*Person, error)
	// AkasByPersonID lists a person's recorded prior names, oldest first.
	AkasByPersonID(ctx context.Context, personID string) ([]Aka, error)
}
