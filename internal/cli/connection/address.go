package connection

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeAddress turns user input into a WebSocket URL.
// A bare host gets ws://, http and https map to ws and wss.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", ErrEmptyAddress
	}

	if !strings.Contains(address, "://") {
		address = "ws://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("parse address: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
		u.Scheme = strings.ToLower(u.Scheme)
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("parse address %q: missing host", address)
	}

	return u.String(), nil
}
