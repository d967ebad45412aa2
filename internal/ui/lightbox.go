package ui

import "sync"

// ClickTarget is where a click inside the lightbox overlay landed
type ClickTarget int

const (
	// TargetBackdrop is the overlay itself, outside the image and caption
	TargetBackdrop ClickTarget = iota
	// TargetContent is the image, the caption or anything else inside the box
	TargetContent
)

// LightboxView is a snapshot of the lightbox
type LightboxView struct {
	Active  bool
	Src     string
	Caption string
}

// Lightbox is the modal full-size image viewer
type Lightbox struct {
	mu   sync.RWMutex
	view LightboxView
}

// Open shows src with caption and marks the lightbox active
func (l *Lightbox) Open(src, caption string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view = LightboxView{Active: true, Src: src, Caption: caption}
}

// Close deactivates the lightbox; the last image and caption stay set
func (l *Lightbox) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.view.Active = false
}

// Dismiss closes the lightbox when the click hit the backdrop itself
func (l *Lightbox) Dismiss(target ClickTarget) bool {
	if target != TargetBackdrop {
		return false
	}
	return l.closeIfActive()
}

// HandleKey closes the lightbox on Escape while it is open
func (l *Lightbox) HandleKey(key string) bool {
	if key != "esc" && key != "Escape" {
		return false
	}
	return l.closeIfActive()
}

func (l *Lightbox) closeIfActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.view.Active {
		return false
	}
	l.view.Active = false
	return true
}

func (l *Lightbox) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view.Active
}

func (l *Lightbox) View() LightboxView {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view
}
