// Package services defines the business logic for ventures, phase gates,
// quota reservation, and the AI copilot. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These are expected business outcomes, not faults: the handler layer maps
// each to a distinct HTTP status and stable error code, because each one
// implies a different corrective action for the caller (wait for the quota
// reset, unlock via the admin path, retry the LLM later, ...).
package services

import "errors"

var (
	// ErrVentureNotFound indicates the venture does not exist or is not
	// accessible to the current user.
	ErrVentureNotFound = errors.New("venture not found")

	// ErrVentureLimit is returned when a user has reached the per-user
	// venture cap.
	ErrVentureLimit = errors.New("venture limit reached")

	// ErrPhaseNotFound indicates the phase row does not exist.
	ErrPhaseNotFound = errors.New("phase not found")

	// ErrPhaseLocked is returned when gate evaluation is attempted on a
	// locked phase. Locked phases can only be force-unlocked.
	ErrPhaseLocked = errors.New("phase is locked")

	// ErrGateNotFound indicates the named gate key does not exist on the
	// phase's criteria set.
	ErrGateNotFound = errors.New("gate criterion not found")

	// ErrQuotaExceeded is returned when the daily usage budget cannot
	// cover the requested operation.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrInvalidArtifactType is returned when creation or generation is
	// requested for a type outside the closed enumeration.
	ErrInvalidArtifactType = errors.New("invalid artifact type")

	// ErrArtifactNotFound indicates the artifact does not exist within
	// the venture.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrConversationNotFound indicates the conversation id does not
	// exist or belongs to a different venture.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyPrompt is returned when a chat request contains an empty
	// message.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a chat message exceeds the configured
	// length limit.
	ErrTooLong = errors.New("prompt too long")
)
