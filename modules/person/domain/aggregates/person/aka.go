package person

// Aka is a historical record of a Person's prior name. Created only when a
// real name change is detected on an existing Person; immutable afterward.
type Aka struct {
	PersonID  string
	Firstname string
	Lastname  string
}
