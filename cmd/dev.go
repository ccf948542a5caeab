package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cineai/internal/server"
	"github.com/desertthunder/cineai/internal/shared"
)

// DevServe runs the in-memory API until interrupted. Seeded accounts get a token printed for `cineai auth import`.
func (r *Runner) DevServe(ctx context.Context, cmd *cli.Command) error {
	stub := server.NewStub(
		server.WithLogger(shared.WithLogger(r.logger, "component", "stub")),
		server.WithSecret(cmd.String("secret")),
	)

	for _, seed := range cmd.StringSlice("user") {
		username, password, ok := strings.Cut(seed, ":")
		if !ok {
			return fmt.Errorf("%w: --user wants username:password, got %q", shared.ErrInvalidArgument, seed)
		}
		token, err := stub.Register(username, password)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", username, err)
		}
		r.writePlain("seeded %s\n  cineai auth import --token %s\n", username, token)
	}

	ln, err := net.Listen("tcp", cmd.String("addr"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	srv := &http.Server{Handler: stub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errs := make(chan error, 1)
	go func() { errs <- srv.Serve(ln) }()

	r.logger.Info("dev API listening", "addr", ln.Addr().String())
	r.writePlain("CineAI dev API on http://%s (Ctrl+C to stop)\n", ln.Addr())

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.logger.Info("shutting down dev API")
	return srv.Shutdown(shutdownCtx)
}
