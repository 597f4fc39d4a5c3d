// Package errs holds the error categories shared by the game packages.
//
// Concrete errors wrap one of the categories, so callers classify a failure
// with errors.Is(err, errs.ErrValidation) and match the precise reason with the
// owning package's sentinel.
package errs

import "errors"

var (
	// ErrValidation marks a well-formed request that breaks a game rule.
	ErrValidation = errors.New("validation error")
	// ErrResource marks a failed precondition such as too few players.
	ErrResource = errors.New("resource error")
	// ErrState marks an action attempted in the wrong phase.
	ErrState = errors.New("state error")
)

// IsRejection reports whether err is a validation or state error, the two
// categories a coordinator rejects without changing state.
func IsRejection(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrState)
}
