package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hnrobert/pagegate/internal/auth"
	"github.com/hnrobert/pagegate/internal/logger"
	"github.com/hnrobert/pagegate/internal/session"
)

type ctxKey string

const ctxSession ctxKey = "session"

// withSession attaches the caller's session to the request context. A client
// without a valid cookie gets an unregistered anonymous session; only a
// successful login registers one and sets the cookie.
func (a *App) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := a.lookupSession(r)
		if s == nil {
			s = session.Anonymous()
		}
		ctx := context.WithValue(r.Context(), ctxSession, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *App) lookupSession(r *http.Request) *session.Session {
	token := ""
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		token = c.Value
	} else if authz := r.Header.Get("Authorization"); authz != "" {
		// Fallback: Authorization: Bearer <token>
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			token = strings.TrimSpace(parts[1])
		}
	}
	if token == "" {
		return nil
	}
	sid, err := auth.ParseSession(a.secret, token)
	if err != nil {
		return nil
	}
	return a.sessions.Get(sid)
}

func sessionFrom(r *http.Request) *session.Session {
	if s, ok := r.Context().Value(ctxSession).(*session.Session); ok {
		return s
	}
	return nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Debug("%s %s %d %dms", r.Method, r.URL.Path, sw.status, time.Since(start).Milliseconds())
	})
}
