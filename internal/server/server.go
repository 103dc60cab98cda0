package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hnrobert/pagegate/internal/audit"
	"github.com/hnrobert/pagegate/internal/config"
	"github.com/hnrobert/pagegate/internal/credstore"
	"github.com/hnrobert/pagegate/internal/logger"
)

const pruneInterval = 10 * time.Minute

type Server struct {
	cfg config.Config
	app *App
	h   http.Handler
}

// New wires the HTTP surface around an already loaded credential store.
// rec may be nil to disable auditing.
func New(cfg config.Config, store *credstore.Store, rec audit.Recorder) (*Server, error) {
	app, err := newApp(cfg, store, rec)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, app: app, h: app.routes()}, nil
}

func (s *Server) Handler() http.Handler {
	return s.h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneSessions(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func (s *Server) pruneSessions(ctx context.Context) {
	t := time.NewTicker(pruneInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.app.sessions.Prune(now.Add(-s.cfg.Session.TTL)); n > 0 {
				logger.Debug("Pruned %d expired sessions", n)
			}
		}
	}
}
