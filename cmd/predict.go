package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/engine"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict company, role and package for a student",
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().String("branch", "", "student branch, e.g. CSE")
	predictCmd.Flags().Float64("cgpa", 0, "student CGPA")
	predictCmd.Flags().StringSlice("skills", nil, "comma separated skills")
	predictCmd.Flags().Int("year", 0, "graduation year")
}

func predict(cmd *cobra.Command) {
	logger, config := setup()

	svc, err := newService(config, logger)
	if err != nil {
		logger.Fatal("building the service", zap.Error(err))
	}

	flags := cmd.Flags()
	branch, _ := flags.GetString("branch")
	cgpa, _ := flags.GetFloat64("cgpa")
	skills, _ := flags.GetStringSlice("skills")
	year, _ := flags.GetInt("year")

	prediction, err := svc.PredictOpportunity(engine.PredictRequest{
		Branch: branch,
		CGPA:   cgpa,
		Skills: skills,
		Year:   year,
	})
	if err != nil {
		logger.Fatal("prediction failed", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(prediction, "", "  ")
	fmt.Println(string(pretty))
}
