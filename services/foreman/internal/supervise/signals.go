package supervise

import (
	"os"
	"syscall"
)

// ReloadSignal tells a worker to stop for a supervisor-driven restart.
// It must never be treated as a real shutdown.
const ReloadSignal = syscall.SIGUSR1

// Demux returns a stop hook for a worker handle that disambiguates a
// reload-triggered stop from an operator-initiated shutdown: the reload
// signal passes through untouched, every other termination signal sets the
// stop event. The hook is non-blocking and idempotent under repeated
// delivery.
func Demux(stop *StopEvent) func(os.Signal) {
	return func(sig os.Signal) {
		if sig == ReloadSignal {
			return
		}
		stop.Set()
	}
}
