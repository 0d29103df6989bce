// Package persistence owns the persons store: a Postgres-backed
// repository running every save through an explicit hook pipeline.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
)

// DB is the slice of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const personColumns = `person_id, uwnetid, firstname, lastname, legal_name,
	studentno, employeeid, email, name_weight, created_at, updated_at`

type PersonRepository struct {
	db    DB
	hooks Hooks
}

type Option func(*PersonRepository)

// WithHooks appends stages to the save pipeline.
func WithHooks(hooks Hooks) Option {
	return func(r *PersonRepository) {
		r.hooks.PreSave = append(r.hooks.PreSave, hooks.PreSave...)
		r.hooks.PreInsert = append(r.hooks.PreInsert, hooks.PreInsert...)
		r.hooks.PreUpdate = append(r.hooks.PreUpdate, hooks.PreUpdate...)
		r.hooks.PostInsert = append(r.hooks.PostInsert, hooks.PostInsert...)
		r.hooks.PostUpdate = append(r.hooks.PostUpdate, hooks.PostUpdate...)
		r.hooks.PostSave = append(r.hooks.PostSave, hooks.PostSave...)
	}
}

func NewPersonRepository(db DB, opts ...Option) *PersonRepository {
	r := &PersonRepository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PersonRepository) GetByPersonID(ctx context.Context, personID string) (*person.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE person_id = $1`, personColumns)
	return r.getOne(ctx, query, strings.TrimSpace(personID))
}

func (r *PersonRepository) GetByNetID(ctx context.Context, netID string) (*person.Person, error) {
	query := fmt.Sprintf(`SELECT %s FROM persons WHERE uwnetid = $1`, personColumns)
	return r.getOne(ctx, query, strings.TrimSpace(netID))
}

func (r *PersonRepository) getOne(ctx context.Context, query string, arg any) (*person.Person, error) {
	p, err := scanPerson(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, person.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// FindOrCreate returns the Person matching the key, or a new unsaved
// Person carrying it. First match wins; the unique constraints on the
// match keys keep ambiguity out of the table in the first place.
func (r *PersonRepository) FindOrCreate(ctx context.Context, field person.MatchField, value string) (*person.Person, error) {
	var (
		p   *person.Person
		err error
	)
	switch field {
	case person.MatchByNetID:
		p, err = r.GetByNetID(ctx, value)
	default:
		p, err = r.GetByPersonID(ctx, value)
	}
	if err == nil {
		return p, nil
	}
	if errors.Is(err, person.ErrNotFound) {
		return person.New(field, value), nil
	}
	return nil, err
}

// Save persists create-or-update through the hook pipeline. The Person row
// and its pending Akas are written in one transaction; a uniqueness
// violation on a match key surfaces as person.ErrPersonIDTaken.
func (r *PersonRepository) Save(ctx context.Context, p *person.Person) error {
	insert := !p.IsPersisted()
	err := runSave(ctx, p, r.hooks, func(ctx context.Context) ([]person.Aka, error) {
		akas := append([]person.Aka(nil), p.PendingAkas()...)
		tx, err := r.db.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if insert {
			err = r.insertPerson(ctx, tx, p)
		} else {
			err = r.updatePerson(ctx, tx, p)
		}
		if err != nil {
			return nil, err
		}
		recorded, err := r.insertAkas(ctx, tx, akas)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		p.MarkPersisted()
		return recorded, nil
	})
	return err
}

func (r *PersonRepository) insertPerson(ctx context.Context, tx pgx.Tx, p *person.Person) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO persons (person_id, uwnetid, firstname, lastname, legal_name,
			studentno, employeeid, email, name_weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())`,
		p.PersonID(), p.NetID(), p.Firstname(), p.Lastname(), p.LegalName(),
		p.StudentNo(), p.EmployeeID(), p.Email(), p.NameWeight(),
	)
	return mapConstraintError(err)
}

// updatePerson keys the UPDATE on the identity the row was loaded with.
// Rows from caches predating person keys are stored with an empty
// person_id; those are keyed on uwnetid so the adopted person_id itself
// gets persisted.
func (r *PersonRepository) updatePerson(ctx context.Context, tx pgx.Tx, p *person.Person) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if p.StoredPersonID() == "" {
		tag, err = tx.Exec(ctx, `
			UPDATE persons SET person_id = $2, firstname = $3, lastname = $4,
				legal_name = $5, studentno = $6, employeeid = $7, email = $8,
				name_weight = $9, updated_at = now()
			WHERE uwnetid = $1`,
			p.NetID(), p.PersonID(), p.Firstname(), p.Lastname(), p.LegalName(),
			p.StudentNo(), p.EmployeeID(), p.Email(), p.NameWeight(),
		)
	} else {
		tag, err = tx.Exec(ctx, `
			UPDATE persons SET uwnetid = $2, firstname = $3, lastname = $4,
				legal_name = $5, studentno = $6, employeeid = $7, email = $8,
				name_weight = $9, updated_at = now()
			WHERE person_id = $1`,
			p.StoredPersonID(), p.NetID(), p.Firstname(), p.Lastname(), p.LegalName(),
			p.StudentNo(), p.EmployeeID(), p.Email(), p.NameWeight(),
		)
	}
	if err != nil {
		return mapConstraintError(err)
	}
	if tag.RowsAffected() == 0 {
		return person.ErrNotFound
	}
	return nil
}

// insertAkas records prior names, skipping any (person_id, firstname,
// lastname) triple already present. Returns the akas actually written.
func (r *PersonRepository) insertAkas(ctx context.Context, tx pgx.Tx, akas []person.Aka) ([]person.Aka, error) {
	var recorded []person.Aka
	for _, aka := range akas {
		tag, err := tx.Exec(ctx, `
			INSERT INTO person_akas (person_id, firstname, lastname, created_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (person_id, firstname, lastname) DO NOTHING`,
			aka.PersonID, aka.Firstname, aka.Lastname,
		)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() > 0 {
			recorded = append(recorded, aka)
		}
	}
	return recorded, nil
}

// AkasByPersonID returns the recorded prior names, oldest first.
func (r *PersonRepository) AkasByPersonID(ctx context.Context, personID string) ([]person.Aka, error) {
	rows, err := r.db.Query(ctx, `
		SELECT person_id, firstname, lastname FROM person_akas
		WHERE person_id = $1 ORDER BY created_at`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []person.Aka
	for rows.Next() {
		var aka person.Aka
		if err := rows.Scan(&aka.PersonID, &aka.Firstname, &aka.Lastname); err != nil {
			return nil, err
		}
		out = append(out, aka)
	}
	return out, rows.Err()
}

func (r *PersonRepository) Search(ctx context.Context, params *person.FindParams) ([]*person.Person, error) {
	if params == nil {
		params = &person.FindParams{}
	}
	query, args := buildSearchQuery(params)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*person.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*person.Person, error) {
	var (
		personID, netID, firstname, lastname, legalName, email string
		studentNo, employeeID                                  *int64
		nameWeight                                             int
		createdAt, updatedAt                                   time.Time
	)
	err := row.Scan(&personID, &netID, &firstname, &lastname, &legalName,
		&studentNo, &employeeID, &email, &nameWeight, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return person.Hydrate(personID, netID, firstname, lastname, legalName,
		studentNo, employeeID, email, nameWeight, createdAt, updatedAt), nil
}
