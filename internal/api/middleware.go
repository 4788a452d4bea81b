package api

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/navigation"
)

type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeySession   contextKey = "session"
)

const (
	msgNotSignedIn = "Sessão não iniciada."
	msgForbidden   = "Seu perfil não tem acesso a esta área."
)

const (
	maxRequestBodySize = 64 << 10
	defaultCORSMethods = "GET, POST, PUT, DELETE, OPTIONS"
	defaultCORSHeaders = "Content-Type, X-Request-ID"
)

// requestID echoes the caller's X-Request-ID, or mints one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

// accessLog logs every request at debug. The wrapped writer still
// hijacks, so WebSocket upgrades pass through it.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("handler panicked",
					"panic", v,
					"path", r.URL.Path,
					"request_id", r.Context().Value(ctxKeyRequestID),
				)
				writeInternalError(w, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors answers preflights itself and only reflects allowed origins.
func (s *Server) cors(next http.Handler) http.Handler {
	methods := joinOr(s.cfg.CORS.AllowedMethods, defaultCORSMethods)
	headers := joinOr(s.cfg.CORS.AllowedHeaders, defaultCORSHeaders)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && s.isAllowedOrigin(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", "86400")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession answers 401 while signed out and stores the session on
// the context for the guards below.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.auth.Current()
		if sess == nil {
			writeUnauthorized(w, msgNotSignedIn)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeySession, sess)))
	})
}

// guard answers 403 unless allow accepts the session.
func guard(allow func(*auth.Session) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := sessionFrom(r.Context()); sess == nil || !allow(sess) {
				writeForbidden(w, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireScreen admits roles whose tab bar shows screen.
func (s *Server) requireScreen(screen navigation.Screen) func(http.Handler) http.Handler {
	return guard(func(sess *auth.Session) bool { return navigation.Allows(sess.Role, screen) })
}

func (s *Server) requireRole(role auth.Role) func(http.Handler) http.Handler {
	return guard(func(sess *auth.Session) bool { return sess.Role == role })
}

func sessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(ctxKeySession).(*auth.Session) //nolint:errcheck // nil outside requireSession
	return sess
}

// isAllowedOrigin accepts everything when no origins are configured.
func (s *Server) isAllowedOrigin(origin string) bool {
	allowed := s.cfg.CORS.AllowedOrigins
	return len(allowed) == 0 || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
