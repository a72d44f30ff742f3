package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Spinner animates a message until stopped.
type Spinner struct {
	w        io.Writer
	message  string
	frames   []string
	interval time.Duration

	started atomic.Bool
	once    sync.Once
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:        w,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 100 * time.Millisecond,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.stopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			fmt.Fprintf(s.w, "\r%s %s", s.frames[i%len(s.frames)], s.message)
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.halt()
	fmt.Fprint(s.w, "\r\033[K")
}

// Success stops with a check mark and message.
func (s *Spinner) Success(message string) {
	s.halt()
	fmt.Fprint(s.w, "\r\033[K")
	Success(s.w, "%s", message)
}

// Fail stops with a cross and message.
func (s *Spinner) Fail(message string) {
	s.halt()
	fmt.Fprint(s.w, "\r\033[K")
	Failure(s.w, "%s", message)
}

func (s *Spinner) halt() {
	s.once.Do(func() {
		close(s.done)
	})
	if s.started.Load() {
		<-s.stopped
	}
}
