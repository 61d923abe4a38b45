package sample

import "errors"

var (
	// ErrUnknownElement is returned for elements that do not belong to the
	// sample model.
	ErrUnknownElement = errors.New("unknown element")

	// ErrNotSuspended is returned when an operation needs a suspended thread.
	ErrNotSuspended = errors.New("thread not suspended")

	// ErrNotEditable is returned when editing a structured variable.
	ErrNotEditable = errors.New("variable not editable")
)
