// Package controllers holds the HTTP surface of the person directory: the
// suggest/prefetch/find endpoints and the on-demand import trigger.
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
	"github.com/uwcoe/persondir/modules/person/presentation/mappers"
	"github.com/uwcoe/persondir/modules/person/presentation/viewmodels"
	"github.com/uwcoe/persondir/modules/person/services"
)

// DirectoryService is what the controller needs from the query service.
type DirectoryService interface {
	Suggest(ctx context.Context, query string, scope person.Scope) ([]*person.Person, error)
	Prefetch(ctx context.Context, scope person.Scope) ([]*person.Person, error)
	Find(ctx context.Context, netID string) (*person.Person, []person.Aka, error)
	SuggestWarehouse(ctx context.Context, query string) ([]services.WarehousePerson, error)
}

// Importer triggers a single-person reconciliation against the warehouse.
type Importer interface {
	ImportByPersonID(ctx context.Context, personID string) (string, error)
}

type SuggestController struct {
	persons  DirectoryService
	importer Importer
	basePath string
}

func NewSuggestController(persons DirectoryService, importer Importer) *SuggestController {
	return &SuggestController{
		persons:  persons,
		importer: importer,
		basePath: "/persons/api",
	}
}

func (c *SuggestController) Key() string {
	return c.basePath
}

func (c *SuggestController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/suggest", c.Suggest).Methods(http.MethodGet)
	router.HandleFunc("/uwsuggest", c.SuggestWarehouse).Methods(http.MethodGet)
	router.HandleFunc("/prefetch", c.Prefetch).Methods(http.MethodGet)
	router.HandleFunc("/find", c.Find).Methods(http.MethodGet)
	router.HandleFunc("/import", c.Import).Methods(http.MethodPost)
}

// Suggest serves typeahead completions from the local cache.
func (c *SuggestController) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	scope := services.ParseScope(r.URL.Query().Get("scope"))

	items, err := c.persons.Suggest(r.Context(), query, scope)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}
	writeSuggestions(w, items)
}

// SuggestWarehouse serves completions straight from the warehouse, for
// people not yet imported.
func (c *SuggestController) SuggestWarehouse(w http.ResponseWriter, r *http.Request) {
	hits, err := c.persons.SuggestWarehouse(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_WAREHOUSE", "warehouse unavailable")
		return
	}
	out := make([]*viewmodels.Suggestion, 0, len(hits))
	for _, hit := range hits {
		out = append(out, mappers.WarehouseToSuggestion(hit))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

// Prefetch returns the scoped listing clients cache locally.
func (c *SuggestController) Prefetch(w http.ResponseWriter, r *http.Request) {
	scope := services.ParseScope(r.URL.Query().Get("scope"))
	items, err := c.persons.Prefetch(r.Context(), scope)
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}
	writeSuggestions(w, items)
}

// Find returns the full cached record for an exact net-id.
func (c *SuggestController) Find(w http.ResponseWriter, r *http.Request) {
	netID := strings.TrimSpace(r.URL.Query().Get("uwnetid"))
	if netID == "" {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_MISSING_NETID", "uwnetid is required")
		return
	}
	p, akas, err := c.persons.Find(r.Context(), netID)
	if errors.Is(err, person.ErrNotFound) {
		writeAPIError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not found")
		return
	}
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, mappers.PersonToDetail(p, akas))
}

type importRequest struct {
	PersonID string `json:"person_id"`
}

// Import pulls one person from the warehouse into the cache on demand and
// returns their net-id.
func (c *SuggestController) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_INVALID_JSON", "invalid json")
		return
	}
	req.PersonID = strings.TrimSpace(req.PersonID)
	if req.PersonID == "" {
		writeAPIError(w, r, http.StatusBadRequest, "PERSON_MISSING_ID", "person_id is required")
		return
	}

	netID, err := c.importer.ImportByPersonID(r.Context(), req.PersonID)
	if errors.Is(err, person.ErrPersonIDTaken) {
		writeAPIError(w, r, http.StatusConflict, "PERSON_ID_TAKEN", "person id already taken")
		return
	}
	if err != nil {
		writeAPIError(w, r, http.StatusInternalServerError, "PERSON_INTERNAL", "internal error")
		return
	}
	if netID == "" {
		writeAPIError(w, r, http.StatusNotFound, "PERSON_NOT_FOUND", "person not in warehouse")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uwnetid": netID})
}

func writeSuggestions(w http.ResponseWriter, items []*person.Person) {
	out := make([]*viewmodels.Suggestion, 0, len(items))
	for _, p := range items {
		out = append(out, mappers.PersonToSuggestion(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}
