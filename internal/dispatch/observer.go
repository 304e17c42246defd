package dispatch

import "time"

// Observer receives timing events from a Dispatcher. Calls may arrive concurrently.
type Observer interface {
	CallStarted(mode Mode)
	CallFinished(mode Mode, elapsed time.Duration, err error)
	DispatchFinished(mode Mode, queries int, elapsed time.Duration, err error)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) CallStarted(Mode)                                 {}
func (NopObserver) CallFinished(Mode, time.Duration, error)          {}
func (NopObserver) DispatchFinished(Mode, int, time.Duration, error) {}
