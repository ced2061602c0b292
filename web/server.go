package web

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/stl/errors"
	"github.com/wippyai/stl/registry"
	"github.com/wippyai/stl/symbol"
)

// ThreadName is the registry name of the dispatch goroutine.
const ThreadName = "web"

// maxFormMemory bounds multipart form parsing held in memory.
const maxFormMemory = 32 << 20

type job struct {
	req  *Request
	done chan struct{}
}

// Server hands HTTP requests to a callback entry point one at a time.
type Server struct {
	reg      *registry.Registry
	entry    symbol.EntryPoint
	jobs     chan job
	quit     chan struct{}
	callback string
	handle   atomic.Int32
	ready    chan struct{}
	debug    atomic.Bool
	once     sync.Once
}

// New resolves callback and starts the dispatch goroutine. An unknown
// callback is fatal.
func New(reg *registry.Registry, callback string) *Server {
	entry := reg.Resolve(callback)
	if entry.WantsShared() {
		reg.Log().Fatal(errors.New(errors.PhaseWeb, errors.KindSignatureMismatch).
			Name(callback).
			Detail("web callback cannot take a shared context").
			Build())
	}

	s := &Server{
		reg:      reg,
		entry:    entry,
		callback: callback,
		jobs:     make(chan job),
		quit:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
	s.debug.Store(true)

	go s.dispatch()
	<-s.ready
	return s
}

// SetDebug toggles per-request diagnostics.
func (s *Server) SetDebug(on bool) {
	s.debug.Store(on)
}

// Thread returns the registry handle of the dispatch goroutine.
func (s *Server) Thread() registry.Handle {
	return registry.Handle(s.handle.Load())
}

// Close stops the dispatch goroutine. Requests arriving afterwards get 503.
// The thread slot stays registered.
func (s *Server) Close() {
	s.once.Do(func() { close(s.quit) })
}

func (s *Server) dispatch() {
	s.handle.Store(int32(s.reg.RegisterCurrent(ThreadName)))
	close(s.ready)

	for {
		select {
		case <-s.quit:
			return
		case j := <-s.jobs:
			s.call(j.req)
			close(j.done)
		}
	}
}

func (s *Server) call(req *Request) {
	req.debugf("web: %s request for URL %s using %s", req.r.Method, req.r.URL.Path, req.r.Proto)

	code := s.entry.Call(req.r.Context(), nil, req)

	if !req.responded {
		s.reg.Log().Logf("web: callback <%s> returned %d without a response", s.callback, code)
		req.Error(http.StatusInternalServerError, "no response")
	}
	req.debugf("return status %d", req.status)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !stderrors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "bad form: "+err.Error(), http.StatusBadRequest)
		return
	}

	j := job{
		req:  newRequest(r, s.reg.Log(), s.debug.Load()),
		done: make(chan struct{}),
	}

	select {
	case s.jobs <- j:
	case <-s.quit:
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	<-j.done
	j.req.write(w)
}

// ListenAndServe serves on port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ErrorLog:          zap.NewStdLog(s.reg.Log().Zap()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.reg.Log().Logf("web server starting on port %d", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(errors.PhaseWeb, errors.KindPrimitiveFailure, err, "web server failed to launch")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.PhaseWeb, errors.KindPrimitiveFailure, err, "shutdown")
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(errors.PhaseWeb, errors.KindPrimitiveFailure, err, "serve")
	}
	return nil
}
