package persistence

import (
	"fmt"
	"strings"

	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
)

// buildSearchQuery renders FindParams to SQL with bound parameters only.
// Every term must prefix-match net-id, first name, or last name; the scope
// filter applies before term matching. No Terms means the full scoped
// listing (prefetch).
func buildSearchQuery(params *person.FindParams) (string, []any) {
	var (
		where []string
		args  []any
	)

	switch params.Scope {
	case person.ScopeEmployee:
		where = append(where, "employeeid IS NOT NULL")
	case person.ScopeStudent:
		where = append(where, "studentno IS NOT NULL")
	case person.ScopeNetID:
		where = append(where, "uwnetid <> ''")
	}

	for _, term := range params.Terms {
		if term == "" {
			continue
		}
		args = append(args, escapeLike(term)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(uwnetid ILIKE $%d OR firstname ILIKE $%d OR lastname ILIKE $%d)", n, n, n))
	}

	query := `SELECT ` + personColumns + ` FROM persons`
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, "\n  AND ")
	}
	query += "\nORDER BY lastname, firstname"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf("\nLIMIT $%d", len(args))
	}
	return query, args
}

// escapeLike neutralizes LIKE metacharacters in user-supplied terms so a
// term matches literally.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
