package worker

import (
	"os"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	// The registry is process-global, so each test registers under its
	// own name and restricts the worker to it.
	name := "worker_test_" + t.Name()
	Register(name, noopFunc)

	w, err := New(&Settings{Functions: []string{name}})
	require.NoError(t, err)
	return w
}

func TestNewRequiresRegisteredFunctions(t *testing.T) {
	_, err := New(&Settings{Functions: []string{"worker_test_unknown"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestNewAppliesDefaults(t *testing.T) {
	w := newTestWorker(t)
	defer func() { require.NoError(t, w.Close()) }()

	assert.Equal(t, DefaultQueueName, w.settings.QueueName)
	assert.Equal(t, DefaultMaxJobs, w.settings.MaxJobs)
	assert.NotEmpty(t, w.id)
}

func TestHandleSignalInvokesHookBeforeStart(t *testing.T) {
	w := newTestWorker(t)
	defer func() { require.NoError(t, w.Close()) }()

	var got atomic.Value
	w.SetOnStop(func(sig os.Signal) { got.Store(sig) })

	// No run loop exists yet; the hook still fires and nothing panics.
	w.HandleSignal(syscall.SIGUSR1)
	assert.Equal(t, syscall.SIGUSR1, got.Load())
}

func TestHandleSignalWithoutHook(t *testing.T) {
	w := newTestWorker(t)
	defer func() { require.NoError(t, w.Close()) }()

	assert.NotPanics(t, func() { w.HandleSignal(syscall.SIGTERM) })
}

func TestCloseNeverStartedWorker(t *testing.T) {
	w := newTestWorker(t)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close(), "close is idempotent")
}

func TestRunSettingsAppliesOverrides(t *testing.T) {
	name := "worker_test_overrides"
	Register(name, noopFunc)

	on := true
	s := (&Settings{Functions: []string{name}}).apply(Overrides{Burst: &on})
	assert.True(t, s.Burst)
}
