// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the access engine to distinguish between different
// failure scenarios. For example, ErrMemberNotFound tells the engine
// that a scanned code resolved to nothing, while ErrVisitConflict
// signals that another station opened a visit for the same member
// between the engine's read and its write.
package repository

import "errors"

// ErrMemberNotFound is returned when no member matches the given
// identifier or badge code.
var ErrMemberNotFound = errors.New("member not found")

// ErrNoVehicle is returned when a member has no registered vehicle to
// associate with a new visit.
var ErrNoVehicle = errors.New("no vehicle registered")

// ErrVehicleNotFound is returned when no vehicle matches the given
// identifier.
var ErrVehicleNotFound = errors.New("vehicle not found")

// ErrVisitNotFound is returned when no visit matches the given
// identifier.
var ErrVisitNotFound = errors.New("visit not found")

// ErrVisitConflict is returned when opening a visit would leave a
// member with two visits in the inside state. The row lock taken by
// OpenVisit makes this the losing side of a concurrent double scan.
var ErrVisitConflict = errors.New("member already has an open visit")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a member that still
// has visits on record. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")
