package person

// Domain events published on the event bus after a successful save.

type CreatedEvent struct {
	Person *Person
}

type UpdatedEvent struct {
	Person *Person
}

// NameChangedEvent is published once per Aka recorded during a save.
type NameChangedEvent struct {
	PersonID     string
	OldFirstname string
	OldLastname  string
	NewFirstname string
	NewLastname  string
	NameWeight   int
}
