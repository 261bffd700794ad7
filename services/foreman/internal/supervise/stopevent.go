package supervise

import "sync"

// StopEvent is a single-shot, process-local stop flag. Once set it never
// clears; setting it is the only way the watch-reload loop terminates.
// Each process owns its own StopEvent, there is no package-level instance.
type StopEvent struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopEvent() *StopEvent {
	return &StopEvent{ch: make(chan struct{})}
}

// Set marks the event. Safe to call any number of times from any goroutine,
// including a signal-delivery path; only the first call has an effect.
func (e *StopEvent) Set() {
	e.once.Do(func() { close(e.ch) })
}

// Done returns a channel that is closed once the event is set.
func (e *StopEvent) Done() <-chan struct{} {
	return e.ch
}

func (e *StopEvent) IsSet() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}
