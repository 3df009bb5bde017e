package app

import (
	"errors"
	"fmt"
	"iter"
	"plugin"
	"slices"
	"strings"
	"sync"

	"github.com/indigo-web/gateway/environ"
	"github.com/indigo-web/utils/strcomp"
)

var ErrBadName = errors.New("application must be named as module:callable")

var (
	mu       sync.RWMutex
	registry = map[string]Application{}
)

// Register makes an application discoverable via Lookup under module:callable. Registering
// the same name twice panics.
func Register(module, callable string, application Application) {
	if application == nil {
		panic("app: Register application is nil")
	}

	mu.Lock()
	defer mu.Unlock()

	name := module + ":" + callable
	if _, dup := registry[name]; dup {
		panic("app: Register called twice for " + name)
	}

	registry[name] = application
}

// Lookup resolves a module:callable name. Modules with the .so suffix are loaded as Go
// plugins, where the callable must be an exported symbol of either the Application type
// or its underlying function type. Any other module is looked up among registered ones.
func Lookup(name string) (Application, error) {
	module, callable, found := strings.Cut(name, ":")
	if !found || len(module) == 0 || len(callable) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadName, name)
	}

	if hasSuffixFold(module, ".so") {
		return lookupPlugin(module, callable)
	}

	mu.RLock()
	application, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no application %q is registered", name)
	}

	return application, nil
}

// Registered returns all the registered names in lexical order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func lookupPlugin(path, callable string) (Application, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plugin: %w", err)
	}

	sym, err := p.Lookup(callable)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", path, err)
	}

	switch application := sym.(type) {
	case *Application:
		return *application, nil
	case Application:
		return application, nil
	case func(environ.Environ, StartResponse) (iter.Seq[[]byte], error):
		return application, nil
	default:
		return nil, fmt.Errorf("plugin %s: %s is %T, not an application", path, callable, sym)
	}
}

func hasSuffixFold(str, suffix string) bool {
	return len(str) >= len(suffix) && strcomp.EqualFold(str[len(str)-len(suffix):], suffix)
}
