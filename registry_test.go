package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	factory := func() Functor { return newScripted(1) }

	require.NoError(t, RegisterBackend("Test-B", factory))
	require.NoError(t, RegisterBackend("test-a", factory))
	require.Error(t, RegisterBackend("test-b", factory), "names are case-insensitive")

	f, err := New("TEST-A")
	require.NoError(t, err)
	require.NotNil(t, f)

	_, err = New("no-such-backend")
	require.Error(t, err)

	names := Backends()
	require.Contains(t, names, "test-a")
	require.Contains(t, names, "test-b")
	require.IsIncreasing(t, names)
}
