package dispatch

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Factory builds a fresh Functor for a registered device back-end.
type Factory func() Functor

var (
	muRegistry sync.Mutex

	// registeredBackends maps a lowercase back-end name to its factory.
	registeredBackends = map[string]Factory{}
)

// RegisterBackend registers a device back-end under the given name --
// typically called from the back-end package's init, so that importing the
// package for its side effects makes the back-end available by name.
//
// Names are case-insensitive. Registering a name twice is an error.
func RegisterBackend(name string, factory Factory) error {
	name = strings.ToLower(name)
	muRegistry.Lock()
	defer muRegistry.Unlock()
	if _, found := registeredBackends[name]; found {
		return errors.Errorf("device back-end %q is already registered", name)
	}
	registeredBackends[name] = factory
	return nil
}

// New returns a fresh Functor from the back-end registered under name.
func New(name string) (Functor, error) {
	muRegistry.Lock()
	factory, found := registeredBackends[strings.ToLower(name)]
	muRegistry.Unlock()
	if !found {
		return nil, errors.Errorf("no device back-end registered as %q, available: %q", name, Backends())
	}
	return factory(), nil
}

// Backends returns the names of all registered device back-ends, sorted.
func Backends() []string {
	muRegistry.Lock()
	names := keys(registeredBackends)
	muRegistry.Unlock()
	sort.Strings(names)
	return names
}
