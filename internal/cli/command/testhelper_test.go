package command

import (
	"bytes"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
)

// syncBuffer is a bytes.Buffer safe for the writers the app spawns.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// remote is a WebSocket endpoint that records every text frame.
type remote struct {
	*httptest.Server
	addr     string
	received chan string
}

func newRemote(t *testing.T) *remote {
	t.Helper()

	r := &remote{received: make(chan string, 32)}
	upgrader := websocket.Upgrader{}
	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			r.received <- string(msg)
		}
	}))
	t.Cleanup(r.Close)

	r.addr = "ws" + strings.TrimPrefix(r.URL, "http")
	return r
}

// expect waits for the given payloads in order.
func (r *remote) expect(t *testing.T, want ...string) {
	t.Helper()
	for i, w := range want {
		select {
		case got := <-r.received:
			if got != w {
				t.Fatalf("payload[%d] = %q, want %q", i, got, w)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for payload[%d] %q", i, w)
		}
	}
}

// runApp runs the full application with a private home directory and
// config path. Leading args go before the command.
func runApp(t *testing.T, stdin string, args ...string) (out, errOut *syncBuffer, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	app := App()
	out, errOut = &syncBuffer{}, &syncBuffer{}
	app.Writer = out
	app.ErrWriter = errOut
	app.Reader = strings.NewReader(stdin)

	err = app.Run(append([]string{"remotectl"}, args...))
	return out, errOut, err
}

func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cli.yaml")
}

// testContext creates a CLI context with the global flags parsed from args.
func testContext(args ...string) *cli.Context {
	app := &cli.App{
		Name:     "test",
		Flags:    globalFlags(),
		Metadata: map[string]any{},
	}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range app.Flags {
		f.Apply(set)
	}
	set.Parse(args)

	return cli.NewContext(app, set, nil)
}
