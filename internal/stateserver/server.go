// Package stateserver exposes spooled task state over HTTP: derived
// snapshots and raw event logs as JSON, plus a small HTML status page.
package stateserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"taskline/internal/spool"
)

// Config captures the settings for serving spooled task state.
type Config struct {
	Addr      string
	SpoolPath string
}

// Serve opens the spool and hosts the state endpoints until the context is
// cancelled.
func Serve(ctx context.Context, cfg Config, log *zap.Logger) error {
	if ctx == nil {
		return errors.New("stateserver: context is nil")
	}
	if cfg.Addr == "" {
		return errors.New("stateserver: addr is required")
	}
	if cfg.SpoolPath == "" {
		return errors.New("stateserver: spool path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	sp, err := spool.Open(cfg.SpoolPath)
	if err != nil {
		return err
	}
	defer sp.Close()

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: NewHandler(sp, log),
	}
	log.Info("state server listening", zap.String("addr", cfg.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) || err == nil {
			return nil
		}
		return err
	}
}
