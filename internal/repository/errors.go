// Package repository implements data access over MySQL for users,
// tickets, exchange requests and refresh tokens. This file defines
// the sentinel error values shared across repositories so handlers
// can translate failure scenarios into HTTP responses: not-found
// sentinels become 404, ErrForbidden 403 and ErrConflict 409.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are not a party to, such as accepting an exchange
// request addressed to someone else. Distinct from not-found: the
// resource exists, the caller may not touch it.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// dependent state, such as cancelling a ticket that is still
// referenced by an open exchange request.
var ErrConflict = errors.New("conflict")

// ErrTicketNotFound is returned when a ticket id does not resolve to
// a row. Callers scoring a pool of candidates may skip it; callers
// operating on the ticket itself must surface it.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrUserNotFound is returned when a user id or phone number does not
// resolve to a row.
var ErrUserNotFound = errors.New("user not found")

// ErrRequestNotFound is returned when an exchange request id does not
// resolve to a row.
var ErrRequestNotFound = errors.New("exchange request not found")

// ErrDuplicateSeat is returned when a ticket is created with two
// passengers on the same (coach, seat_number) pair.
var ErrDuplicateSeat = errors.New("duplicate seat on ticket")
