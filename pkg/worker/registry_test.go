package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopFunc(ctx context.Context, args json.RawMessage) (any, error) {
	return nil, nil
}

func TestRegisterValidation(t *testing.T) {
	assert.Panics(t, func() { Register("", noopFunc) })
	assert.Panics(t, func() { Register("registry_test_nil", nil) })

	Register("registry_test_dup", noopFunc)
	assert.Panics(t, func() { Register("registry_test_dup", noopFunc) })
}

func TestResolveFunctionsSubset(t *testing.T) {
	Register("registry_test_a", noopFunc)
	Register("registry_test_b", noopFunc)

	s := Settings{Functions: []string{"registry_test_a"}}
	funcs, err := s.resolveFunctions()
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Contains(t, funcs, "registry_test_a")
}

func TestResolveFunctionsEmptyMeansAll(t *testing.T) {
	Register("registry_test_all", noopFunc)

	funcs, err := (&Settings{}).resolveFunctions()
	require.NoError(t, err)
	assert.Contains(t, funcs, "registry_test_all")
}

func TestResolveFunctionsUnknownName(t *testing.T) {
	s := Settings{Functions: []string{"registry_test_missing"}}
	_, err := s.resolveFunctions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}
