package sentinel

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is a string-backed error type that can be declared as a const.
// Unlike errors.New, which produces a pointer stored in a var that any
// package could reassign, const Error values are immutable.
//
// Error is comparable, so the default == comparison used by errors.Is
// matches it correctly through wrapped error chains.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
