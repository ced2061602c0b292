package registry

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/stl/diag"
	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/symbol"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
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

type exitCalled int

func panicExit(code int) { panic(exitCalled(code)) }

func testConfig(n int) Config {
	return Config{
		Threads:    n,
		Mutexes:    n,
		Semaphores: n,
		Timers:     n,
		Debug:      true,
	}
}

func newTestRegistry(t *testing.T, cfg Config, opts ...Option) (*Registry, *symbol.Table, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	symbols := symbol.NewTable()
	opts = append([]Option{WithOutput(out), WithExit(panicExit), WithSymbols(symbols)}, opts...)
	r := New(cfg, opts...)
	t.Cleanup(r.Close)
	return r, symbols, out
}

// expectFatal runs fn on the calling goroutine and checks that it ends on
// the fatal path with an error of the given kind.
func expectFatal(t *testing.T, out *syncBuffer, kind errors.Kind, fn func()) {
	t.Helper()
	before := len(out.String())

	func() {
		defer func() {
			r := recover()
			code, ok := r.(exitCalled)
			if !ok {
				t.Fatalf("expected fatal exit, got panic %v", r)
			}
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
		}()
		fn()
		t.Fatalf("expected fatal %s, call returned", kind)
	}()

	written := out.String()[before:]
	if !strings.Contains(written, diag.FatalPrefix) {
		t.Errorf("no fatal line written: %q", written)
	}
	if !strings.Contains(written, string(kind)) {
		t.Errorf("fatal line %q does not mention %s", written, kind)
	}
}

func mustRegister(t *testing.T, symbols *symbol.Table, name string, fn symbol.Func) {
	t.Helper()
	if err := symbols.Register(name, fn); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
}
