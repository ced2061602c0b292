package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/stl/registry"
	"github.com/wippyai/stl/symbol"
)

type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type exitCalled int

func newTestServer(t *testing.T, fn symbol.Func) (*Server, *registry.Registry, *lockedBuffer) {
	t.Helper()
	out := &lockedBuffer{}
	symbols := symbol.NewTable()
	require.NoError(t, symbols.Register("serve", fn))

	reg := registry.New(registry.DefaultConfig(),
		registry.WithSymbols(symbols),
		registry.WithOutput(out),
		registry.WithExit(func(code int) { panic(exitCalled(code)) }),
	)
	t.Cleanup(reg.Close)

	srv := New(reg, "serve")
	t.Cleanup(srv.Close)
	return srv, reg, out
}

func do(t *testing.T, srv http.Handler, req *http.Request) (*http.Response, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	res := rec.Result()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(body)
}

func TestServer_HTMLOnWebThread(t *testing.T) {
	var reg *registry.Registry
	var self atomic.Int32
	var name atomic.Value

	srv, r, _ := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		req := arg.(*Request)
		self.Store(int32(reg.Self()))
		name.Store(reg.ThreadName(-1))

		who, ok := req.GetArg("who")
		if !ok {
			who = "nobody"
		}
		req.HTML("<b>" + req.URL() + " " + who + "</b>")
		return 0
	})
	reg = r

	res, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/greet?who=ada", nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/html", res.Header.Get("Content-Type"))
	require.Equal(t, "<b>/greet ada</b>", body)

	require.Equal(t, int32(srv.Thread()), self.Load())
	require.Equal(t, ThreadName, name.Load())
}

func TestServer_PostArgsAndHeaders(t *testing.T) {
	type seen struct {
		post       bool
		field, hdr string
		fieldOK    bool
	}
	got := make(chan seen, 1)

	srv, _, _ := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		req := arg.(*Request)
		field, ok := req.PostArg("color")
		hdr, _ := req.Header("x-client")
		got <- seen{post: req.IsPost(), field: field, fieldOK: ok, hdr: hdr}
		req.Data([]byte{1, 2, 3}, "application/octet-stream")
		return 0
	})

	form := url.Values{"color": {"teal"}}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Client", "probe")

	res, body := do(t, srv, req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/octet-stream", res.Header.Get("Content-Type"))
	require.Equal(t, "\x01\x02\x03", body)
	require.Equal(t, seen{post: true, field: "teal", fieldOK: true, hdr: "probe"}, <-got)
}

func TestServer_Template(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(tmpl, []byte(`<p>{{.name}} has {{.count}}</p>`), 0o644))

	srv, _, _ := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		req := arg.(*Request)
		req.SetValue("name", "<ada>")
		req.SetValue("count", "3")
		req.Template(tmpl)
		return 0
	})

	res, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "<p>&lt;ada&gt; has 3</p>", body)
}

func TestServer_TemplateMissing(t *testing.T) {
	srv, _, out := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		arg.(*Request).Template(filepath.Join(t.TempDir(), "nope.html"))
		return 0
	})

	res, _ := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, out.String(), "web_template")
}

func TestServer_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ok":true}`), 0o644))

	srv, _, _ := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		req := arg.(*Request)
		if req.URL() == "/missing" {
			req.File(filepath.Join(dir, "missing.json"), "application/json")
			return 0
		}
		req.File(path, "application/json")
		return 0
	})

	res, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/data", nil))
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	require.Equal(t, `{"ok":true}`, body)

	res, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestServer_ErrorAndNoResponse(t *testing.T) {
	srv, _, out := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		req := arg.(*Request)
		if req.URL() == "/forbidden" {
			req.Error(http.StatusForbidden, "go away")
		}
		return 4
	})

	res, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/forbidden", nil))
	require.Equal(t, http.StatusForbidden, res.StatusCode)
	require.Equal(t, "go away\n", body)

	res, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/silent", nil))
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, out.String(), "returned 4 without a response")
}

func TestServer_OneRequestAtATime(t *testing.T) {
	var inFlight, peak atomic.Int32

	srv, _, _ := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		arg.(*Request).HTML("ok")
		return 0
	})
	srv.SetDebug(false)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := http.Get(ts.URL)
			if err == nil {
				res.Body.Close()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), peak.Load())
}

func TestServer_Closed(t *testing.T) {
	srv, _, _ := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		arg.(*Request).HTML("ok")
		return 0
	})
	srv.Close()

	res, _ := do(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestNew_UnknownCallback(t *testing.T) {
	out := &lockedBuffer{}
	reg := registry.New(registry.DefaultConfig(),
		registry.WithSymbols(symbol.NewTable()),
		registry.WithOutput(out),
		registry.WithExit(func(code int) { panic(exitCalled(code)) }),
	)
	defer reg.Close()

	require.PanicsWithValue(t, exitCalled(1), func() { New(reg, "missing") })
	require.Contains(t, out.String(), "entry point named [missing] not found")
}

func TestListenAndServe_ShutsDownOnCancel(t *testing.T) {
	srv, _, out := newTestServer(t, func(ctx context.Context, arg any) symbol.ExitCode {
		arg.(*Request).HTML("ok")
		return 0
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, 0) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "web server starting on port 0")
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
