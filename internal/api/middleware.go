package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smarthouse-core/internal/infrastructure/config"
)

type contextKey string

const ctxKeyRequestID contextKey = "request_id"

// requestID returns the ID observeMiddleware attached to the request.
func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyRequestID).(string)
	return id
}

// observeMiddleware is the outermost middleware. It tags the request with an
// X-Request-ID (the client's, or a fresh UUID), then logs the outcome and
// records it in the request metrics.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id))

		start := time.Now()
		rt := &responseTracker{ResponseWriter: w}
		next.ServeHTTP(rt, r)
		elapsed := time.Since(start)

		s.metrics.observeRequest(r, rt.statusCode(), elapsed)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rt.statusCode(),
			"duration_ms", elapsed.Milliseconds(),
			"request_id", id,
		)
	})
}

// recoveryMiddleware turns a handler panic into a 500. If the handler had
// already started its response the status cannot change, so the panic is
// only logged.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, ok := w.(*responseTracker)
		if !ok {
			rt = &responseTracker{ResponseWriter: w}
		}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(v)
			}
			s.logger.Error("panic recovered in HTTP handler",
				"error", v,
				"method", r.Method,
				"path", r.URL.Path,
				"response_started", rt.started(),
				"request_id", requestID(r),
			)
			if !rt.started() {
				writeInternalError(rt, "internal server error")
			}
		}()
		next.ServeHTTP(rt, r)
	})
}

// corsPolicy answers cross-origin requests for the configured origins.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	methods   string
	headers   string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		anyOrigin: len(cfg.AllowedOrigins) == 0,
		origins:   make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods:   strings.Join(cfg.AllowedMethods, ", "),
		headers:   strings.Join(cfg.AllowedHeaders, ", "),
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			p.anyOrigin = true
		}
		p.origins[o] = struct{}{}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// middleware sets the CORS headers for allowed origins and answers preflight
// requests itself: 204 for an allowed origin, 403 otherwise. Requests without
// an Origin header pass through untouched.
func (p corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !p.anyOrigin {
			w.Header().Add("Vary", "Origin")
		}

		allowed := p.allows(origin)
		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if p.methods != "" {
				h.Set("Access-Control-Allow-Methods", p.methods)
			}
			if p.headers != "" {
				h.Set("Access-Control-Allow-Headers", p.headers)
			}
			h.Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if allowed {
				w.WriteHeader(http.StatusNoContent)
			} else {
				w.WriteHeader(http.StatusForbidden)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize caps request bodies at 1 MB.
const maxRequestBodySize = 1 << 20

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// responseTracker records the status a handler sent and whether any part of
// the response has gone out.
type responseTracker struct {
	http.ResponseWriter
	status   int
	hijacked bool
}

func (rt *responseTracker) WriteHeader(status int) {
	if rt.status == 0 {
		rt.status = status
	}
	rt.ResponseWriter.WriteHeader(status)
}

func (rt *responseTracker) Write(b []byte) (int, error) {
	if rt.status == 0 {
		rt.status = http.StatusOK
	}
	return rt.ResponseWriter.Write(b)
}

func (rt *responseTracker) started() bool { return rt.status != 0 || rt.hijacked }

// statusCode is the status sent, 200 when the handler wrote nothing and 101
// for an upgraded connection.
func (rt *responseTracker) statusCode() int {
	switch {
	case rt.hijacked:
		return http.StatusSwitchingProtocols
	case rt.status == 0:
		return http.StatusOK
	}
	return rt.status
}

// Hijack lets the WebSocket upgrader take over the connection.
func (rt *responseTracker) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rt.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("api: response writer does not support hijacking")
	}
	conn, rw, err := h.Hijack()
	if err == nil {
		rt.hijacked = true
	}
	return conn, rw, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rt *responseTracker) Unwrap() http.ResponseWriter {
	return rt.ResponseWriter
}
