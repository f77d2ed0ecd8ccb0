// Package service implements the membership workflow on top of the
// repositories: the join/leave/promote state machine, the join-request
// queue, and post/comment/like writes. Every mutating path authorizes via
// internal/authz first, mutates second, and publishes a fan-out event last.
package service

import "github.com/lalith-99/huddle/internal/authz"

// Kind classifies a domain failure. Handlers map kinds onto HTTP statuses;
// the service layer never imports net/http.
type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindNotFound
	KindConflict
	KindInvalidState
	KindValidation
)

// Conflict reason tags. Authorization denial tags live in internal/authz.
const (
	ReasonDuplicateRequest = "DUPLICATE_REQUEST"
	ReasonAlreadyResolved  = "ALREADY_RESOLVED"
	ReasonAlreadyMember    = "ALREADY_MEMBER"
	ReasonStaleRole        = "STALE_ROLE"
)

// Error is a domain error with a machine-readable reason tag. Clients render
// the tag, not the message.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
}

func (e *Error) Error() string { return e.Message }

func Unauthorized(reason authz.Reason, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Reason: string(reason), Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(reason, msg string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: msg}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func Invalid(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
