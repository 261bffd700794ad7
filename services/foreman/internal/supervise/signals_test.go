package supervise

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemuxPassesReloadSignalThrough(t *testing.T) {
	stop := NewStopEvent()
	hook := Demux(stop)

	hook(ReloadSignal)
	assert.False(t, stop.IsSet(), "reload signal must not trip the stop event")
}

func TestDemuxTerminationSignalsSetStop(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		stop := NewStopEvent()
		Demux(stop)(sig)
		assert.True(t, stop.IsSet(), "signal %v should set the stop event", sig)
	}
}

func TestDemuxRepeatedDelivery(t *testing.T) {
	stop := NewStopEvent()
	hook := Demux(stop)

	hook(ReloadSignal)
	hook(syscall.SIGTERM)
	hook(syscall.SIGINT)
	hook(ReloadSignal)

	assert.True(t, stop.IsSet())
}
