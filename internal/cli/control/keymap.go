package control

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Key identifies a key press: a named key or a single printable character.
type Key string

const (
	KeyNone   Key = ""
	KeyLeft   Key = "left"
	KeyRight  Key = "right"
	KeyUp     Key = "up"
	KeyDown   Key = "down"
	KeyEnter  Key = "enter"
	KeySpace  Key = "space"
	KeyEscape Key = "escape"
	KeyQuit   Key = "quit"
)

var namedKeys = map[Key]bool{
	KeyLeft: true, KeyRight: true, KeyUp: true, KeyDown: true,
	KeyEnter: true, KeySpace: true, KeyEscape: true,
}

var (
	// ErrInvalidKey is returned for a binding whose key is not recognized.
	ErrInvalidKey = errors.New("invalid key")
	// ErrReservedKey is returned when binding a key that quits keyboard mode.
	ErrReservedKey = errors.New("key is reserved")
)

// Keymap maps keys to payloads. It is safe for concurrent use and can be
// replaced while keyboard mode is running.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[Key]string
}

// DefaultBindings are the arrow bindings of the remote.
func DefaultBindings() map[string]string {
	return map[string]string{
		string(KeyLeft):  "prev",
		string(KeyRight): "next",
	}
}

// NewKeymap validates bindings and builds a keymap.
func NewKeymap(bindings map[string]string) (*Keymap, error) {
	km := &Keymap{}
	if err := km.Replace(bindings); err != nil {
		return nil, err
	}
	return km, nil
}

// DefaultKeymap returns the arrow-key keymap.
func DefaultKeymap() *Keymap {
	km, _ := NewKeymap(DefaultBindings())
	return km
}

// Replace swaps all bindings at once. On error the keymap is unchanged.
func (km *Keymap) Replace(bindings map[string]string) error {
	next := make(map[Key]string, len(bindings))
	for name, payload := range bindings {
		key, err := ParseKey(name)
		if err != nil {
			return err
		}
		if payload == "" {
			return fmt.Errorf("key %q: empty payload", name)
		}
		next[key] = payload
	}

	km.mu.Lock()
	km.bindings = next
	km.mu.Unlock()
	return nil
}

// Lookup returns the payload bound to key.
func (km *Keymap) Lookup(key Key) (string, bool) {
	km.mu.RLock()
	defer km.mu.RUnlock()
	payload, ok := km.bindings[key]
	return payload, ok
}

// Bindings returns a copy of the bindings keyed by name.
func (km *Keymap) Bindings() map[string]string {
	km.mu.RLock()
	defer km.mu.RUnlock()

	out := make(map[string]string, len(km.bindings))
	for k, v := range km.bindings {
		out[string(k)] = v
	}
	return out
}

// Keys returns the bound key names, sorted.
func (km *Keymap) Keys() []string {
	return slices.Sorted(maps.Keys(km.Bindings()))
}

// ParseKey parses a binding name: a named key or one printable character.
func ParseKey(name string) (Key, error) {
	key := Key(name)
	if key == KeyQuit || name == "q" {
		return KeyNone, fmt.Errorf("%w: %q", ErrReservedKey, name)
	}
	if namedKeys[key] {
		return key, nil
	}
	// KeyReader only reports printable ASCII characters.
	if len(name) == 1 && name[0] > ' ' && name[0] < 0x7f {
		return key, nil
	}
	return KeyNone, fmt.Errorf("%w: %q", ErrInvalidKey, name)
}
