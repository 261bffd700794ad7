package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Func is a job function. Args is the raw JSON the job was enqueued with;
// the returned value is stored as the job result.
type Func func(ctx context.Context, args json.RawMessage) (any, error)

var (
	funcMu    sync.RWMutex
	funcTable = make(map[string]Func)
)

// Register makes a job function available to workers under the given name.
// It panics if the name is empty, the function is nil, or the name is
// already taken, mirroring how http.HandleFunc treats duplicate patterns.
func Register(name string, fn Func) {
	funcMu.Lock()
	defer funcMu.Unlock()
	if name == "" {
		panic("worker: Register with empty job function name")
	}
	if fn == nil {
		panic("worker: Register with nil job function")
	}
	if _, dup := funcTable[name]; dup {
		panic("worker: Register called twice for job function " + name)
	}
	funcTable[name] = fn
}

func registeredFuncs() map[string]Func {
	funcMu.RLock()
	defer funcMu.RUnlock()
	out := make(map[string]Func, len(funcTable))
	for name, fn := range funcTable {
		out[name] = fn
	}
	return out
}

// resolveFunctions maps the settings' function names to registered job
// functions. An empty list selects every registered function.
func (s *Settings) resolveFunctions() (map[string]Func, error) {
	all := registeredFuncs()
	if len(s.Functions) == 0 {
		return all, nil
	}
	out := make(map[string]Func, len(s.Functions))
	for _, name := range s.Functions {
		fn, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("job function %q is not registered", name)
		}
		out[name] = fn
	}
	return out, nil
}
