package converter

import (
	"fmt"
	"sync"
)

var (
	registry = make(map[string]Converter)
	mu       sync.RWMutex
	disabled = make(map[string]bool)
)

// Register registers a converter in the global registry
func Register(c Converter) {
	mu.Lock()
	defer mu.Unlock()
	registry[c.Name()] = c
}

// Get retrieves a converter by name
func Get(name string) (Converter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// ListInfo returns information about all registered converters
func ListInfo() []Info {
	mu.RLock()
	defer mu.RUnlock()
	infos := make([]Info, 0, len(registry))
	for name, c := range registry {
		infos = append(infos, Info{
			Name:         name,
			TargetFormat: c.TargetFormat(),
			Enabled:      !disabled[name],
		})
	}
	return infos
}

// FindConverter finds the first enabled converter that can handle the given
// file. codec is the probed source codec when already known, empty otherwise.
func FindConverter(srcPath string, codec string) (Converter, error) {
	mu.RLock()
	defer mu.RUnlock()

	for name, c := range registry {
		if disabled[name] {
			continue
		}
		if c.CanConvert(srcPath, codec) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no converter found for file: %s (codec: %s)", srcPath, codec)
}

// Enable enables a converter by name
func Enable(name string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := registry[name]; !ok {
		return fmt.Errorf("converter not found: %s", name)
	}
	delete(disabled, name)
	return nil
}

// Disable disables a converter by name
func Disable(name string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, ok := registry[name]; !ok {
		return fmt.Errorf("converter not found: %s", name)
	}
	disabled[name] = true
	return nil
}
