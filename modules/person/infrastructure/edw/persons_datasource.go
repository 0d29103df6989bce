package edw

import (
	"context"
	"strings"
	"time"
)

// Warehouse person queries. Column aliases are the contract with the
// import job's row parsing; keep them stable.
const (
	personSelect = `SELECT p.PersonKey, p.UWNetID, p.DisplayName, p.LegalName,
	p.LegalFirstName, p.LegalLastName, p.EmployeeID, p.StudentId, p.Email
FROM sec.uw_persons p`

	collegePositionsQuery = personSelect + `
WHERE p.OrganizationCode LIKE ?
  AND p.PositionEndDate >= ?
ORDER BY p.PersonKey`

	personsByNetIDQuery = personSelect + `
WHERE p.UWNetID LIKE ?
ORDER BY p.LegalLastName, p.LegalFirstName`

	personByPersonIDQuery = personSelect + `
WHERE p.PersonKey = ?`
)

// PersonsDataSource retrieves person and position data from the warehouse.
type PersonsDataSource struct {
	conn          *Connection
	orgMatch      string
	validityYears int
}

func NewPersonsDataSource(conn *Connection, orgMatch string, validityYears int) *PersonsDataSource {
	return &PersonsDataSource{conn: conn, orgMatch: orgMatch, validityYears: validityYears}
}

// CollegePositions returns current employee position records within the
// configured organization scope. Rows must still have been valid on or
// after the validity date (one ValidityYears window back from now), which
// gives departed persons a grace period before updates stop.
func (s *PersonsDataSource) CollegePositions(ctx context.Context) ([]map[string]string, error) {
	validity := time.Now().AddDate(-s.validityYears, 0, 0).Format("2006-01-02")
	return s.conn.FetchAssoc(ctx, collegePositionsQuery, s.orgMatch, validity)
}

// PersonsByNetID finds warehouse persons whose net-id contains the term.
func (s *PersonsDataSource) PersonsByNetID(ctx context.Context, netID string) ([]map[string]string, error) {
	return s.conn.FetchAssoc(ctx, personsByNetIDQuery, "%"+netID+"%")
}

// PersonByPersonID returns the single warehouse row for an exact person
// key, nil when the key is unknown.
func (s *PersonsDataSource) PersonByPersonID(ctx context.Context, personID string) (map[string]string, error) {
	return s.conn.FetchRow(ctx, personByPersonIDQuery, personID)
}

// SearchPersons matches warehouse persons whose net-id or display name
// contains any of the terms. Used for live lookup of persons not yet
// imported into the local cache.
func (s *PersonsDataSource) SearchPersons(ctx context.Context, terms []string) ([]map[string]string, error) {
	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*2)
	for _, term := range terms {
		if term == "" {
			continue
		}
		clauses = append(clauses, "p.UWNetID LIKE ? OR p.DisplayName LIKE ?")
		args = append(args, "%"+term+"%", "%"+term+"%")
	}
	if len(clauses) == 0 {
		return nil, nil
	}
	query := personSelect + `
WHERE ` + strings.Join(clauses, " OR ") + `
ORDER BY p.LegalLastName, p.LegalFirstName`
	return s.conn.FetchAssoc(ctx, query, args...)
}
