package person

// ParsedPerson is one external row normalized by the warehouse value
// parser. Nil means the source did not supply the field; blank source
// values are converted to nil upstream so the merge never sees them.
type ParsedPerson struct {
	PersonID   *string
	NetID      *string
	Firstname  *string
	Lastname   *string
	LegalName  *string
	StudentNo  *int64
	EmployeeID *int64
	Email      *string
	// NameWeight tags the precedence of this source's name write.
	NameWeight int
}

// MatchValue returns the value of the given match key, "" when absent.
func (d ParsedPerson) MatchValue(field MatchField) string {
	switch field {
	case MatchByNetID:
		if d.NetID != nil {
			return *d.NetID
		}
	default:
		if d.PersonID != nil {
			return *d.PersonID
		}
	}
	return ""
}
