// Package services implements the conversation orchestration pipeline and
// its supporting application services. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer. Note that ProcessTurn itself never propagates any of them:
// the orchestration boundary converts every failure into a fallback outcome.
package services

import "errors"

var (
	// ErrIdentityUnresolved indicates that the caller token carried no usable
	// identity signal at all: not a store id, not an email, and the message
	// yielded no derivable contact info.
	ErrIdentityUnresolved = errors.New("identity unresolved")

	// ErrStorageUnavailable wraps store failures (connectivity, constraint
	// violations surfaced by the driver). The pipeline treats it as fatal to
	// the turn; retrying is the caller's concern.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmptyMessage is returned when a turn is requested for an empty or
	// whitespace-only message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a message exceeds the maximum configured
	// length limit.
	ErrTooLong = errors.New("message too long")

	// ErrConversationNotFound indicates that the requested conversation does
	// not exist or is not accessible to the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrLeadNotFound indicates that the requested lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrEmptyNote is returned when an empty note is submitted for a lead.
	ErrEmptyNote = errors.New("note is empty")
)
