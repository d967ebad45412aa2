package app

import (
	"errors"
	"fmt"
)

// Action names a trigger with its own busy flag
type Action int

const (
	ActionGenerate Action = iota
	ActionLoadGallery
	ActionDownload
)

func (a Action) String() string {
	switch a {
	case ActionGenerate:
		return "generate"
	case ActionLoadGallery:
		return "load gallery"
	case ActionDownload:
		return "download"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// State is the lifecycle of one action.
//
//	Idle/Succeeded/Failed --trigger--> Submitting --> Succeeded | Failed
//
// Validation failures leave the state untouched.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ErrBusy is returned when an action is triggered while it is still in flight
var ErrBusy = errors.New("action already in progress")

// ValidationError is a client-side rejection. It is rendered on the page and
// returned only to report the outcome.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
