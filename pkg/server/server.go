// Package server exposes the lexer over HTTP and WebSocket so editors can
// request scans of buffers as they change.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antibyte/minilang/pkg/auth"
	"github.com/antibyte/minilang/pkg/configuration"
	"github.com/antibyte/minilang/pkg/history"
	"github.com/antibyte/minilang/pkg/lexer"
	"github.com/antibyte/minilang/pkg/logger"
	"github.com/antibyte/minilang/pkg/output"
)

// envelope is the room left for JSON framing around the source text.
const envelope = 64 * 1024

// Options tune the server.
type Options struct {
	RequireAuth    bool
	MaxSourceBytes int64
	WriteWait      time.Duration
	PongWait       time.Duration
	KeepRuns       int
	AllowedOrigins []string

	// RequestsPerMinute caps scans per client address; 0 disables the cap.
	RequestsPerMinute int
}

// OptionsFromConfig reads the [Server] and [History] sections.
func OptionsFromConfig() Options {
	var origins []string
	for _, o := range strings.Split(configuration.GetString("Server", "allowed_origins", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return Options{
		RequireAuth:    configuration.GetBool("Server", "require_auth", false),
		MaxSourceBytes: int64(configuration.GetInt("Server", "max_source_kb", 512)) * 1024,
		WriteWait:      configuration.GetDuration("Server", "write_wait_timeout", 10*time.Second),
		PongWait:       configuration.GetDuration("Server", "pong_timeout", 60*time.Second),
		KeepRuns:       configuration.GetInt("History", "keep_runs", 500),
		AllowedOrigins: origins,

		RequestsPerMinute: configuration.GetInt("Server", "requests_per_minute", 600),
	}
}

// ScanRequest is the body of a scan over HTTP or WebSocket.
type ScanRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves scan requests. The history store is optional.
type Server struct {
	store    *history.Store
	opts     Options
	upgrader websocket.Upgrader
	limiter  *rateLimiter
}

// New returns a server recording runs in store when it is non-nil.
func New(store *history.Store, opts Options) *Server {
	if opts.MaxSourceBytes <= 0 {
		opts.MaxSourceBytes = 512 * 1024
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}

	s := &Server{store: store, opts: opts, limiter: newRateLimiter(opts.RequestsPerMinute)}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	logger.SecurityWarn("WebSocket request from disallowed origin %s rejected", origin)
	return false
}

// Routes returns the HTTP handler of the server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/scan", s.protect(s.limit(s.handleScan)))
	mux.HandleFunc("POST /api/auth/session", auth.HandleCreateSession)
	mux.HandleFunc("OPTIONS /api/auth/session", auth.HandleCreateSession)
	mux.HandleFunc("GET /ws", s.protect(s.handleWebSocket))
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.store != nil {
		mux.HandleFunc("GET /api/runs", s.protect(s.handleListRuns))
		mux.HandleFunc("GET /api/runs/{id}", s.protect(s.handleGetRun))
		mux.HandleFunc("DELETE /api/runs/{id}", s.protect(s.handleDeleteRun))
	}

	return logRequests(mux)
}

func (s *Server) protect(h http.HandlerFunc) http.HandlerFunc {
	if s.opts.RequireAuth {
		return auth.RequireToken(h)
	}
	return h
}

// Scan analyzes req and records the run when a store is configured.
func (s *Server) Scan(ctx context.Context, req ScanRequest) (output.Result, error) {
	tokens, errs := lexer.Analyze(req.Source)
	res := output.NewResult(req.Name, tokens, errs)

	if s.store == nil {
		return res, nil
	}
	run, err := s.store.Record(ctx, req.Name, req.Source, tokens, errs)
	if err != nil {
		return res, err
	}
	res.RunID = run.ID
	if s.opts.KeepRuns > 0 {
		if _, err := s.store.Prune(ctx, s.opts.KeepRuns); err != nil {
			logger.Warn(logger.AreaHistory, "prune failed: %v", err)
		}
	}
	return res, nil
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxSourceBytes+envelope)

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "source too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if int64(len(req.Source)) > s.opts.MaxSourceBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "source too large")
		return
	}

	res, err := s.Scan(r.Context(), req)
	if err != nil {
		logger.ServerError("scan of %s could not be recorded: %v", req.Name, err)
		writeError(w, http.StatusInternalServerError, "failed to record scan")
		return
	}
	logger.ServerDebug("scanned %s for %s: %d tokens, %d errors",
		req.Name, auth.ClientIDFromContext(r.Context()), res.Summary.Tokens, res.Summary.Errors)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var (
		runs []history.Run
		err  error
	)
	if hash := r.URL.Query().Get("hash"); hash != "" {
		runs, err = s.store.FindByHash(r.Context(), hash)
	} else {
		runs, err = s.store.List(r.Context(), limit)
	}
	if err != nil {
		logger.ServerError("listing runs failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		logger.ServerError("loading run failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		logger.ServerError("deleting run failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ServerWarn("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.ServerDebug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// TLSSource supplies the TLS setup of the listener.
type TLSSource interface {
	IsEnabled() bool
	GetTLSConfig() *tls.Config
	GetHTTPHandler() http.Handler
	GetHTTPAddr() string
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. tlsSource may be nil for plain HTTP.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tlsSource TLSSource) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var challenge *http.Server
	if tlsSource != nil && tlsSource.IsEnabled() {
		srv.TLSConfig = tlsSource.GetTLSConfig()
		if handler := tlsSource.GetHTTPHandler(); handler != nil {
			challenge = &http.Server{Addr: tlsSource.GetHTTPAddr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				if err := challenge.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.ServerError("ACME challenge listener failed: %v", err)
				}
			}()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.ServerInfo("listening on %s (tls=%v, auth=%v)", addr, srv.TLSConfig != nil, s.opts.RequireAuth)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.ServerInfo("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if challenge != nil {
		challenge.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
