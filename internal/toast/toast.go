// Package toast models transient status messages.
package toast

import "time"

// DefaultDismiss is how long a toast stays visible
const DefaultDismiss = 3 * time.Second

// Kind is the visual kind of a toast
type Kind string

const (
	KindLoading Kind = "loading"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is a status message. A zero DismissAfter means it stays until the
// page changes.
type Toast struct {
	Kind         Kind
	Text         string
	DismissAfter time.Duration
}

func Loading(text string) Toast {
	return Toast{Kind: KindLoading, Text: text, DismissAfter: DefaultDismiss}
}

func Success(text string) Toast {
	return Toast{Kind: KindSuccess, Text: text, DismissAfter: DefaultDismiss}
}

func Error(text string) Toast {
	return Toast{Kind: KindError, Text: text, DismissAfter: DefaultDismiss}
}

// Sticky returns t without auto-dismissal
func (t Toast) Sticky() Toast {
	t.DismissAfter = 0
	return t
}

// IsZero reports whether there is nothing to show
func (t Toast) IsZero() bool {
	return t.Text == ""
}

// DismissMillis is DismissAfter in milliseconds, for templates
func (t Toast) DismissMillis() int64 {
	return t.DismissAfter.Milliseconds()
}
