package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cpu-sim/cpu-sim/internal/server"
	"github.com/cpu-sim/cpu-sim/internal/store"
)

var (
	serveAddr     string
	serveDBPath   string
	serveMaxTicks int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulation sessions over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []server.Option
		if serveDBPath != "" {
			st, err := store.Open(ctx, serveDBPath)
			if err != nil {
				logrus.Fatalf("open database: %v", err)
			}
			defer st.Close()
			opts = append(opts, server.WithStore(st))
			logrus.Infof("Run archive ready at %s", serveDBPath)
		}
		if serveMaxTicks > 0 {
			opts = append(opts, server.WithMaxTicks(serveMaxTicks))
		}

		if err := serve(ctx, serveAddr, server.New(opts...)); err != nil {
			logrus.Fatalf("server failed: %v", err)
		}
	},
}

// serve listens on addr until ctx is cancelled, then drains open requests.
func serve(ctx context.Context, addr string, h http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("server starting on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logrus.Info("server stopped")
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite database for the run archive (disabled when empty)")
	serveCmd.Flags().Int64Var(&serveMaxTicks, "max-ticks", 0, "Tick limit per session (0 = engine default)")

	rootCmd.AddCommand(serveCmd)
}
