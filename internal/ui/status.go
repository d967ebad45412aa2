package ui

import "sync"

// StatusKind classifies a status box. Kinds are mutually exclusive.
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusError
	StatusInfo
)

func (k StatusKind) String() string {
	switch k {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusInfo:
		return "info"
	default:
		return "idle"
	}
}

// DefaultLoadingMessage is shown when ShowLoading gets an empty message
const DefaultLoadingMessage = "Loading..."

// Status is a snapshot of a status box
type Status struct {
	Kind StatusKind
	Text string
}

// Visible reports whether the box is shown at all
func (s Status) Visible() bool {
	return s.Kind != StatusIdle
}

// StatusBox is the inline region reflecting the latest outcome of a form section.
// Every call replaces both the kind and the text.
type StatusBox struct {
	mu     sync.RWMutex
	status Status
}

func (b *StatusBox) set(kind StatusKind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = Status{Kind: kind, Text: text}
}

func (b *StatusBox) ShowLoading(message string) {
	if message == "" {
		message = DefaultLoadingMessage
	}
	b.set(StatusLoading, message)
}

func (b *StatusBox) ShowSuccess(message string) { b.set(StatusSuccess, message) }

func (b *StatusBox) ShowError(message string) { b.set(StatusError, message) }

func (b *StatusBox) ShowInfo(message string) { b.set(StatusInfo, message) }

func (b *StatusBox) Hide() { b.set(StatusIdle, "") }

// Status returns the current state of the box
func (b *StatusBox) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}
