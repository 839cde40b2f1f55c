package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/zefrenchwan/egonet.git/serving"
	"github.com/zefrenchwan/egonet.git/versioned"
)

// shutdownTimeout is the time left to running requests when the server stops
const shutdownTimeout = 10 * time.Second

func newServeCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over http",
		Long: `
Serves the configured store over http until SIGINT or SIGTERM.
Tokens are required when auth.secret is set.
`,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return env.withStore(ctx, func(store *versioned.Store) error {
				return serve(ctx, env, store)
			})
		},
	}
}

// serve runs the server until ctx is done
func serve(ctx context.Context, env *environment, store *versioned.Store) error {
	auth := serving.NewAuthenticator(env.config.Auth.Secret, env.config.Auth.Users, env.config.Auth.TokenDuration)
	server := &http.Server{
		Addr:              env.config.Server.Address,
		Handler:           serving.InitService(store, ctx, env.logger, auth),
		ReadHeaderTimeout: 5 * time.Second,
	}

	failures := make(chan error, 1)
	go func() {
		env.logger.Infow("serving", "address", server.Addr, "backend", env.config.Storage.Backend, "auth", auth.Enabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failures <- err
		}

		close(failures)
	}()

	select {
	case err := <-failures:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	env.logger.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
