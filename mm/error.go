package mm

// Error describes a simulator error. Errors that callers are expected to
// test for are defined as package-level variables pointing to an Error
// value so they can be matched with errors.Is.
type Error struct {
	// The subsystem where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
