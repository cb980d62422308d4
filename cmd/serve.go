package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the placement API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address (default :5000)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx := context.Background()

	logger, config := setup()

	svc, err := newService(config, logger)
	if err != nil {
		logger.Fatal("building the service", zap.Error(err))
	}

	advisor, err := newAdvisor(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI advice", zap.Error(err))
		advisor = nil
	}

	var cfg server.Config
	if config.Server != nil {
		cfg = *config.Server
	}

	srv := server.New(cfg, svc, advisor, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("shutting down the server")

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting the placeme api", zap.String("version", currentVersion()))

	if err := srv.Listen(); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}
}
