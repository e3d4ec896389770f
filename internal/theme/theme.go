// Package theme is the light/dark display preference.
package theme

import (
	"strings"
	"sync"
)

// CookieName carries the preference between page loads of one browser session
const CookieName = "theme"

// Theme is a display preference
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse returns Dark for "dark" and Light for anything else
func Parse(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(Dark)) {
		return Dark
	}
	return Light
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// RootClass is the class set on the document root element
func (t Theme) RootClass() string {
	if t == Dark {
		return "dark"
	}
	return ""
}

func (t Theme) IsDark() bool {
	return t == Dark
}

// Toggler holds a theme for long-lived consumers and notifies on change
type Toggler struct {
	mu        sync.Mutex
	current   Theme
	listeners []func(Theme)
}

// NewToggler starts at initial
func NewToggler(initial Theme) *Toggler {
	return &Toggler{current: Parse(string(initial))}
}

// Current returns the active theme
func (t *Toggler) Current() Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Toggle flips the theme and returns the new value
func (t *Toggler) Toggle() Theme {
	t.mu.Lock()
	t.current = t.current.Toggle()
	next := t.current
	listeners := append([]func(Theme){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// OnChange registers fn to run after every toggle
func (t *Toggler) OnChange(fn func(Theme)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}
