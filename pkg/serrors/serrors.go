// Package serrors provides small coded errors shared across packages.
package serrors

import "fmt"

// Base is an error carrying a stable machine-readable code alongside the
// human-readable message. Code is what API consumers and log queries key on.
type Base struct {
	Code    string
	Message string
	Details string
}

func NewError(code, message, details string) *Base {
	return &Base{Code: code, Message: message, Details: details}
}

func (e *Base) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error with per-occurrence details
// attached, leaving the shared sentinel untouched.
func (e *Base) WithDetails(details string) *Base {
	return &Base{Code: e.Code, Message: e.Message, Details: details}
}

// Is matches on the code so wrapped copies compare equal to the sentinel.
func (e *Base) Is(target error) bool {
	t, ok := target.(*Base)
	return ok && t.Code == e.Code
}
