// Package core defines the fundamental interfaces and types shared by the
// campaign store, the launch simulator and their collaborators.
package core

import "time"

// Kind classifies a user-facing notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notice is a single notification emitted by the engine.
type Notice struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is the sink the engine uses to surface outcomes to the
// presentation layer (toasts, logs, activity feeds).
type Notifier interface {
	Notify(kind Kind, message string)
}

// ProgressFunc observes launch progress. It is called synchronously on the
// launch goroutine, once per tick, with strictly increasing values.
type ProgressFunc func(progress int)

// NopNotifier discards all notifications.
var NopNotifier Notifier = nopNotifier{}

type nopNotifier struct{}

func (nopNotifier) Notify(Kind, string) {}

// MultiNotifier fans a notification out to several sinks in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(kind Kind, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, message)
		}
	}
}
