package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the role, company and package models and persist the bundle",
	Run: func(_ *cobra.Command, _ []string) {
		train()
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int("trees", 0, "number of trees per model (default from config)")
	trainCmd.Flags().Int64("seed", 0, "random seed (default from config)")
	trainCmd.Flags().Int("workers", 0, "trees grown in parallel (default GOMAXPROCS)")

	viper.BindPFlag("model.trees", trainCmd.Flags().Lookup("trees"))
	viper.BindPFlag("model.seed", trainCmd.Flags().Lookup("seed"))
	viper.BindPFlag("model.workers", trainCmd.Flags().Lookup("workers"))
}

func train() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()

	svc, err := newService(config, logger)
	if err != nil {
		logger.Fatal("building the service", zap.Error(err))
	}

	logger.Info("training models",
		zap.String("dataset", config.Dataset.Path),
		zap.Int("trees", config.Model.Trees),
		zap.Int64("seed", config.Model.Seed),
	)

	path, err := svc.TrainModel(ctx)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	logger.Info("model trained", zap.String("path", path))
}
