package models

import "errors"

// Kinds of domain refusal. Match them with errors.Is.
var (
	ErrInvalidState         = errors.New("invalid state")
	ErrAlreadyParticipating = errors.New("already participating")
	ErrCampaignFull         = errors.New("campaign full")
	ErrInvalidTransition    = errors.New("invalid status transition")
)

// StateError is returned when an operation is refused because of the
// entity's current state. Msg is safe to show to clients.
type StateError struct {
	Kind error
	Msg  string
}

func (e *StateError) Error() string { return e.Msg }

func (e *StateError) Unwrap() error { return e.Kind }
