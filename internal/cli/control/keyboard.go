package control

import (
	"bufio"
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode is requested on a non-terminal.
var ErrNotTerminal = errors.New("not a terminal")

// Terminal holds a file descriptor switched to raw mode.
type Terminal struct {
	fd    int
	state *term.State
}

// MakeRaw puts f into raw mode so single key presses can be read.
func MakeRaw(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &Terminal{fd: fd, state: state}, nil
}

// Restore returns the terminal to its previous mode.
func (t *Terminal) Restore() error {
	return term.Restore(t.fd, t.state)
}

// KeyReader decodes key presses from raw terminal input.
type KeyReader struct {
	r *bufio.Reader
}

// NewKeyReader creates a reader over r.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: bufio.NewReader(r)}
}

// ReadKey returns the next key press. Unrecognized input yields KeyNone.
// Ctrl-C, Ctrl-D and q yield KeyQuit.
func (kr *KeyReader) ReadKey() (Key, error) {
	b, err := kr.r.ReadByte()
	if err != nil {
		return KeyNone, err
	}

	switch {
	case b == 0x03, b == 0x04, b == 'q':
		return KeyQuit, nil
	case b == '\r', b == '\n':
		return KeyEnter, nil
	case b == ' ':
		return KeySpace, nil
	case b == 0x1b:
		return kr.readEscape()
	case b > ' ' && b < 0x7f:
		return Key(string(rune(b))), nil
	default:
		return KeyNone, nil
	}
}

// readEscape decodes CSI (ESC [) and SS3 (ESC O) arrow sequences,
// including modified forms such as ESC [ 1 ; 5 C.
func (kr *KeyReader) readEscape() (Key, error) {
	if kr.r.Buffered() == 0 {
		return KeyEscape, nil
	}

	intro, err := kr.r.ReadByte()
	if err != nil {
		return KeyEscape, nil
	}
	if intro != '[' && intro != 'O' {
		return KeyNone, nil
	}

	// Parameters and intermediates run until a final byte in 0x40-0x7e.
	for {
		b, err := kr.r.ReadByte()
		if err != nil {
			return KeyNone, err
		}
		if b < 0x40 || b > 0x7e {
			continue
		}
		switch b {
		case 'A':
			return KeyUp, nil
		case 'B':
			return KeyDown, nil
		case 'C':
			return KeyRight, nil
		case 'D':
			return KeyLeft, nil
		default:
			return KeyNone, nil
		}
	}
}
