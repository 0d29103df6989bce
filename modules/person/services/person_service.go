// Package services implements the directory use cases: the warehouse
// reconciliation job and the suggest/search queries backing the HTTP API.
package services

import (
	"context"
	"strings"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
	"github.com/uwcoe/persondir/modules/person/infrastructure/edw"
)

// WarehouseSearcher is the slice of the warehouse datasource the suggest
// service queries when a caller asks for people outside the local cache.
type WarehouseSearcher interface {
	SearchPersons(ctx context.Context, terms []string) ([]map[string]string, error)
}

// WarehousePerson is one external directory hit. Rows come back from the
// warehouse already display-ready; no local Person exists for them yet.
type WarehousePerson struct {
	PersonID    string
	NetID       string
	DisplayName string
}

type PersonService struct {
	repo          person.Repository
	warehouse     WarehouseSearcher
	parser        edw.Parser
	suggestLimit  int
	prefetchLimit int
}

func NewPersonService(repo person.Repository, warehouse WarehouseSearcher, suggestLimit, prefetchLimit int) *PersonService {
	return &PersonService{
		repo:          repo,
		warehouse:     warehouse,
		suggestLimit:  suggestLimit,
		prefetchLimit: prefetchLimit,
	}
}

// NormalizeQuery lowercases a raw query and collapses runs of whitespace
// into single spaces. An all-space query normalizes to "".
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// ParseScope maps a request parameter onto a search scope, defaulting to
// ScopeAll for anything unrecognized.
func ParseScope(raw string) person.Scope {
	switch person.Scope(raw) {
	case person.ScopeEmployee, person.ScopeStudent, person.ScopeNetID:
		return person.Scope(raw)
	default:
		return person.ScopeAll
	}
}

// Suggest returns locally cached people matching every term of the query
// by net-id, first-name, or last-name prefix. An empty query returns no
// results rather than everything.
func (s *PersonService) Suggest(ctx context.Context, query string, scope person.Scope) ([]*person.Person, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, nil
	}
	return s.repo.Search(ctx, &person.FindParams{
		Terms: strings.Split(normalized, " "),
		Scope: scope,
		Limit: s.suggestLimit,
	})
}

// Prefetch returns the scoped listing used to warm client-side caches.
func (s *PersonService) Prefetch(ctx context.Context, scope person.Scope) ([]*person.Person, error) {
	return s.repo.Search(ctx, &person.FindParams{
		Scope: scope,
		Limit: s.prefetchLimit,
	})
}

// Find looks up a single cached person by exact net-id, together with
// their recorded prior names.
func (s *PersonService) Find(ctx context.Context, netID string) (*person.Person, []person.Aka, error) {
	p, err := s.repo.GetByNetID(ctx, strings.TrimSpace(netID))
	if err != nil {
		return nil, nil, err
	}
	akas, err := s.repo.AkasByPersonID(ctx, p.PersonID())
	if err != nil {
		return nil, nil, err
	}
	return p, akas, nil
}

// SuggestWarehouse searches the warehouse directly for people not yet in
// the local cache. Rows without a person key are dropped.
func (s *PersonService) SuggestWarehouse(ctx context.Context, query string) ([]WarehousePerson, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return nil, nil
	}
	rows, err := s.warehouse.SearchPersons(ctx, strings.Split(normalized, " "))
	if err != nil {
		return nil, err
	}
	out := make([]WarehousePerson, 0, len(rows))
	for _, row := range rows {
		personID := s.parser.String(row["PersonKey"])
		if personID == nil {
			continue
		}
		hit := WarehousePerson{PersonID: *personID}
		if netID := s.parser.String(row["UWNetID"]); netID != nil {
			hit.NetID = *netID
		}
		if name := s.parser.String(row["DisplayName"]); name != nil {
			hit.DisplayName = *name
		}
		out = append(out, hit)
	}
	return out, nil
}
