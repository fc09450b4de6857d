package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prompt2figma/designd/internal/config"
	"github.com/prompt2figma/designd/internal/engine"
	"github.com/prompt2figma/designd/internal/generator"
	"github.com/prompt2figma/designd/internal/logging"
	"github.com/prompt2figma/designd/internal/server"
	"github.com/prompt2figma/designd/internal/session"
	"github.com/prompt2figma/designd/internal/store"
	"github.com/prompt2figma/designd/internal/version"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the design session HTTP server",
	Long: `Start the HTTP server exposing the design session API.

Configuration is read from the environment (and a .env file if present);
REDIS_STATE_STORE_URL is required.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	logging.Init(logging.Config{
		Level:     logging.ParseLevel(level),
		Output:    os.Stderr,
		Pretty:    printLogs || cfg.LogPretty,
		LogToFile: logFile,
	})

	logging.Info().Str("version", Version).Msg("starting designd server")

	ctx := context.Background()
	st, err := store.Connect(ctx, cfg.RedisURL,
		store.WithTTL(cfg.SessionTTL),
		store.WithContextLimit(cfg.ContextLimit),
	)
	if err != nil {
		return err
	}
	defer st.Close()

	versions := version.NewManager(st,
		version.WithMaxVersions(cfg.MaxVersionsPerSession),
		version.WithKeepRecent(cfg.CompressionKeepRecent),
	)
	sessions := session.NewManager(st, versions, session.WithSessionTTL(cfg.SessionTTL))
	eng := engine.New(engine.WithConfidenceThreshold(cfg.ConfidenceThreshold))

	var gen generator.Generator
	if cfg.GeneratorURL != "" {
		gen = generator.NewHTTP(cfg.GeneratorURL)
		logging.Info().Str("url", cfg.GeneratorURL).Msg("using remote wireframe generator")
	} else {
		gen = generator.Static{}
		logging.Warn().Msg("no WIREFRAME_GENERATOR_URL set, using local development generator")
	}
	timed := generator.WithTimeout(gen, cfg.GeneratorTimeout)

	serverCfg := server.DefaultConfig()
	serverCfg.Port = cfg.Port
	srv := server.New(serverCfg, sessions, eng, timed)

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logging.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
