package viewmodels

// Suggestion is one typeahead entry: the stable identifier plus the
// rendered label clients display.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PersonDetail is the full cached record returned by the find endpoint,
// including the audit trail of prior names.
type PersonDetail struct {
	PersonID   string      `json:"person_id"`
	UWNetID    string      `json:"uwnetid"`
	Firstname  string      `json:"firstname"`
	Lastname   string      `json:"lastname"`
	LegalName  string      `json:"legal_name"`
	StudentNo  *int64      `json:"studentno"`
	EmployeeID *int64      `json:"employeeid"`
	Email      string      `json:"email"`
	PriorNames []PriorName `json:"prior_names"`
}

// PriorName is one recorded former name.
type PriorName struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}
