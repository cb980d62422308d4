package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/ai"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/engine"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

const (
	PromptMatches    = "Show matched students"
	PromptStats      = "Show stats"
	PromptPrediction = "Show prediction"
	PromptAdvice     = "Show advice"
	PromptToFile     = "Dump result to file"
	PromptExit       = "Exit"
)

var errExit = errors.New("exit requested")

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank historical placements by skill overlap and summarize their outcomes",
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringSlice("skills", nil, "comma separated skills; asked interactively when empty")
	recommendCmd.Flags().String("branch", "", "student branch, e.g. CSE")
	recommendCmd.Flags().Float64("cgpa", 0, "student CGPA")
	recommendCmd.Flags().Int("year", 0, "graduation year")
	recommendCmd.Flags().IntP("top-k", "k", 0, "number of matched students to return (default from config)")
	recommendCmd.Flags().BoolP("auto-approve", "y", false, "print the result as JSON and exit without prompting")
	recommendCmd.Flags().Bool("explain", false, "ask the configured AI provider for advice")

	viper.BindPFlag("ai.enabled", recommendCmd.Flags().Lookup("explain"))
}

func recommend(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()

	svc, err := newService(config, logger)
	if err != nil {
		logger.Fatal("building the service", zap.Error(err))
	}

	req, err := recommendRequest(cmd)
	if err != nil {
		logger.Fatal("reading the query", zap.Error(err))
	}

	result, err := svc.RecommendFromTrends(req)
	if err != nil {
		logger.Fatal("recommendation failed", zap.Error(err))
	}

	if result.Stats.Empty() {
		logger.Info("exiting", zap.String("reason", "no usable skills given"))
		return
	}

	logger.Info("matched historical placements",
		zap.Int("matched", result.Stats.MatchedCount),
		zap.Float64("matched_pct", result.Stats.MatchedPct),
		zap.Float64("avg_package", result.Stats.AvgPackage),
		zap.Int("returned", len(result.MatchedStudents)),
	)

	var advice *ai.Advice
	advisor, err := newAdvisor(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping AI advice", zap.Error(err))
	} else if advisor != nil {
		advice, err = advisor.Advise(ctx, req.Skills, result)
		if err != nil {
			logger.Warn("advice skipped", zap.Error(err))
		}
	}

	if auto, _ := cmd.Flags().GetBool("auto-approve"); auto {
		pretty, _ := json.MarshalIndent(map[string]any{"result": result, "advice": advice}, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	items := []string{PromptMatches, PromptStats, PromptPrediction}
	if advice != nil {
		items = append(items, PromptAdvice)
	}
	items = append(items, PromptToFile, PromptExit)

	prompt := promptui.Select{
		Label: "What next?",
		Items: items,
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, result, advice); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func recommendRequest(cmd *cobra.Command) (engine.RecommendRequest, error) {
	flags := cmd.Flags()

	skills, _ := flags.GetStringSlice("skills")
	if len(trends.NormalizeQuerySkills(skills)) == 0 {
		skillsPrompt := promptui.Prompt{Label: "Skills (comma separated)"}
		answer, err := skillsPrompt.Run()
		if err != nil {
			return engine.RecommendRequest{}, err
		}
		skills = []string{answer}
	}

	req := engine.RecommendRequest{Skills: skills}
	req.Branch, _ = flags.GetString("branch")
	req.TopK, _ = flags.GetInt("top-k")

	if flags.Changed("cgpa") {
		cgpa, _ := flags.GetFloat64("cgpa")
		req.CGPA = &cgpa
	}
	if flags.Changed("year") {
		year, _ := flags.GetInt("year")
		req.Year = &year
	}

	return req, nil
}

func handleAction(action string, logger *zap.Logger, result *trends.Result, advice *ai.Advice) error {
	switch action {
	case PromptMatches:
		for i, m := range result.MatchedStudents {
			logger.Info(fmt.Sprintf("%d. %s (%s, %.2f)", i+1, m.Name, m.Branch, m.CGPA),
				zap.String("company", m.Company),
				zap.String("role", m.JobRole),
				zap.Float64("package", m.Package),
				zap.Int("overlap", m.Overlap),
				zap.Float64("score", m.Score),
			)
		}
		return nil
	case PromptStats:
		pretty, _ := json.MarshalIndent(result.Stats, "", "  ")
		logger.Info(string(pretty), zap.Strings("roles_for_skills", result.RolesForSkills))
		return nil
	case PromptPrediction:
		if result.Predicted == nil {
			logger.Info("no prediction available", zap.String("hint", "run the train command first"))
			return nil
		}
		logger.Info("predicted opportunity",
			zap.String("company", result.Predicted.Company),
			zap.String("role", result.Predicted.Role),
			zap.Float64("package", result.Predicted.Package),
		)
		return nil
	case PromptAdvice:
		pretty, _ := json.MarshalIndent(advice, "", "  ")
		logger.Info(string(pretty))
		return nil
	case PromptToFile:
		filename, err := result.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}
