package ui

import (
	"sync"
	"time"
)

// ToastDuration is how long a toast stays visible
const ToastDuration = 3 * time.Second

// ToastKind selects the toast styling
type ToastKind string

const (
	ToastInfo    ToastKind = "info"
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient notification
type Toast struct {
	Message string
	Kind    ToastKind
}

// Toaster shows one toast at a time. A new toast replaces the current one
// immediately and restarts the dismissal timer; nothing is queued.
type Toaster struct {
	mu      sync.Mutex
	ttl     time.Duration
	current Toast
	visible bool
	seq     uint64
	timer   *time.Timer
}

// NewToaster creates a toaster whose toasts hide after ttl
func NewToaster(ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = ToastDuration
	}
	return &Toaster{ttl: ttl}
}

// Show displays message, superseding any visible toast
func (t *Toaster) Show(message string, kind ToastKind) {
	if kind == "" {
		kind = ToastInfo
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.current = Toast{Message: message, Kind: kind}
	t.visible = true
	t.timer = time.AfterFunc(t.ttl, func() { t.expire(seq) })
}

// expire hides the toast only if it is still the one that armed the timer
func (t *Toaster) expire(seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.seq == seq {
		t.visible = false
	}
}

// Current returns the visible toast, if any
func (t *Toaster) Current() (Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.visible
}

// Dismiss hides the current toast right away
func (t *Toaster) Dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	t.visible = false
}
