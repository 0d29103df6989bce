package person

import (
	"strings"
	"time"
)

// MatchField selects which attribute identifies an incoming external row
// with a local Person. PersonID is the canonical key; NetID exists for the
// legacy integration path and must be enabled explicitly.
type MatchField string

const (
	MatchByPersonID MatchField = "person_id"
	MatchByNetID    MatchField = "uwnetid"
)

// Person is one known individual in the local directory cache. Name fields
// are only ever written through ChangeName so that source precedence and
// the Aka audit trail cannot be bypassed.
type Person struct {
	personID   string
	netID      string
	firstname  string
	lastname   string
	legalName  string
	studentNo  *int64
	employeeID *int64
	email      string
	nameWeight int
	createdAt  time.Time
	updatedAt  time.Time

	persisted bool
	// person_id as currently persisted; lags personID when a row from a
	// cache predating person keys adopts one during merge.
	storedPersonID string
	pendingAkas    []Aka
}

// New returns an unsaved Person carrying only its match key value.
func New(field MatchField, value string) *Person {
	p := &Person{}
	switch field {
	case MatchByNetID:
		p.netID = strings.TrimSpace(value)
	default:
		p.personID = strings.TrimSpace(value)
	}
	return p
}

// Hydrate rebuilds a persisted Person from storage.
func Hydrate(
	personID string,
	netID string,
	firstname string,
	lastname string,
	legalName string,
	studentNo *int64,
	employeeID *int64,
	email string,
	nameWeight int,
	createdAt time.Time,
	updatedAt time.Time,
) *Person {
	return &Person{
		personID:       personID,
		storedPersonID: personID,
		netID:          netID,
		firstname:      firstname,
		lastname:       lastname,
		legalName:      legalName,
		studentNo:      studentNo,
		employeeID:     employeeID,
		email:          email,
		nameWeight:     nameWeight,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		persisted:      true,
	}
}

func (p *Person) PersonID() string { return p.personID }
func (p *Person) NetID() string { return p.netID }
func (p *Person) Firstname() string { return p.firstname }
func (p *Person) Lastname() string { return p.lastname }
func (p *Person) LegalName() string { return p.legalName }
func (p *Person) StudentNo() *int64 { return p.studentNo }
func (p *Person) EmployeeID() *int64 { return p.employeeID }
func (p *Person) Email() string { return p.email }
func (p *Person) NameWeight() int { return p.nameWeight }
func (p *Person) CreatedAt() time.Time { return p.createdAt }
func (p *Person) UpdatedAt() time.Time { return p.updatedAt }
func (p *Person) IsPersisted() bool { return p.persisted }

// StoredPersonID is the person_id the persisted row is keyed under, ""
// for unsaved Persons and for saved rows that predate person keys.
func (p *Person) StoredPersonID() string { return p.storedPersonID }

// PendingAkas are prior-name records queued by ChangeName, persisted by the
// repository in the same transaction as the Person itself.
func (p *Person) PendingAkas() []Aka { return p.pendingAkas }

// MarkPersisted is called by the repository after a successful save.
func (p *Person) MarkPersisted() {
	p.persisted = true
	p.storedPersonID = p.personID
	p.pendingAkas = nil
}

// ChangeName checks for and records a name change. Nil arguments mean
// "do not touch". weight prioritizes input between sources: a strictly
// lower weight than the last recorded write is ignored, an equal or higher
// weight may overwrite. When an actual change is detected the old name is
// queued as an Aka.
func (p *Person) ChangeName(lastname, firstname *string, weight int, legalName *string) {
	if !p.persisted {
		// Not a name change if this is a new record.
		p.lastname = deref(lastname)
		p.firstname = deref(firstname)
		if legalName == nil {
			legalName = makeLegalName(p.lastname, p.firstname)
		}
		p.legalName = deref(legalName)
		p.nameWeight = weight
		return
	}
	if weight < p.nameWeight {
		return
	}
	if legalName == nil {
		legalName = makeLegalName(deref(lastname), deref(firstname))
	}
	if weight > p.nameWeight {
		p.nameWeight = weight
	}
	// Backfill partially-populated legacy records; does not count as a change.
	if p.lastname == "" && lastname != nil {
		p.lastname = *lastname
	}
	if p.firstname == "" && firstname != nil {
		p.firstname = *firstname
	}
	oldFirst := p.firstname
	oldLast := p.lastname
	changed := false
	if lastname != nil && *lastname != p.lastname {
		changed = true
		p.lastname = *lastname
	}
	if firstname != nil && *firstname != p.firstname {
		changed = true
		p.firstname = *firstname
	}
	if legalName != nil && *legalName != p.legalName {
		p.legalName = *legalName
	}
	if changed {
		p.queueAka(Aka{PersonID: p.personID, Firstname: oldFirst, Lastname: oldLast})
	}
}

func (p *Person) queueAka(aka Aka) {
	for _, queued := range p.pendingAkas {
		if queued.Firstname == aka.Firstname && queued.Lastname == aka.Lastname {
			return
		}
	}
	p.pendingAkas = append(p.pendingAkas, aka)
}

// Merge applies parsed external fields onto the Person. Name fields go
// through ChangeName; the remainder are assigned directly. Absent (nil)
// values never erase stored data: warehouse rows routinely carry blank
// columns for fields another source already populated.
func (p *Person) Merge(d ParsedPerson) {
	// person_id is the stable external identifier; once known it is
	// never reassigned by a later row.
	if d.PersonID != nil && p.personID == "" {
		p.personID = *d.PersonID
	}
	if d.NetID != nil {
		p.netID = *d.NetID
	}
	p.ChangeName(d.Lastname, d.Firstname, d.NameWeight, d.LegalName)
	if d.StudentNo != nil {
		v := *d.StudentNo
		p.studentNo = &v
	}
	if d.EmployeeID != nil {
		v := *d.EmployeeID
		p.employeeID = &v
	}
	if d.Email != nil {
		p.email = *d.Email
	}
}

// DisplayName is "First Last", used for suggestion payloads.
func (p *Person) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.firstname) + " " + strings.TrimSpace(p.lastname))
}

// makeLegalName derives the "Last, First" legal name; concatenation when
// one part is empty, nil when both are.
func makeLegalName(lastname, firstname string) *string {
	var out string
	if firstname != "" && lastname != "" {
		out = lastname + ", " + firstname
	} else {
		out = lastname + firstname
	}
	if out == "" {
		return nil
	}
	return &out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
