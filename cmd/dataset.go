package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect the placements dataset",
}

var datasetSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the leading dataset records as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		sample(cmd)
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetSampleCmd)

	datasetSampleCmd.Flags().IntP("limit", "n", 20, "number of records to print")
}

func sample(cmd *cobra.Command) {
	logger, config := setup()

	svc, err := newService(config, logger)
	if err != nil {
		logger.Fatal("building the service", zap.Error(err))
	}

	limit, _ := cmd.Flags().GetInt("limit")

	records, err := svc.SampleData(limit)
	if err != nil {
		logger.Fatal("loading the dataset", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(pretty))
}
