package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jengzang/quake-explorer-go/internal/api"
	"github.com/jengzang/quake-explorer-go/internal/handler"
)

var (
	serveAddress         string
	serveCleanupInterval time.Duration
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the explorer HTTP API.

Examples:
  quake-explorer serve
  quake-explorer serve --address :9090
  EXPLORER_CACHE_PERSIST=false quake-explorer serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (overrides server.address)")
	serveCmd.Flags().DurationVar(&serveCleanupInterval, "cleanup-interval", time.Minute, "how often idle sessions are expired")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown deadline")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if serveAddress != "" {
		a.cfg.Server.Address = serveAddress
	}
	if !a.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.service.StartCleanup(ctx, serveCleanupInterval)

	router := api.SetupRouter(a.cfg, handler.NewExplorerHandler(a.service), a.metrics)
	server := &http.Server{
		Addr:         a.cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", server.Addr).
			Str("version", Version).
			Int("pages", len(a.pages)).
			Msg("Starting explorer server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, done := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server exited")
	return nil
}
