package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/forest"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/server"
	"github.com/AJAY-DOMBALE-04/Placeme/internal/trends"
)

const (
	app       = "placeme"
	envPrefix = "PLACEME"
)

type Config struct {
	Dataset *DatasetConfig `mapstructure:"dataset"`
	Model   *ModelConfig   `mapstructure:"model"`
	Trends  *TrendsConfig  `mapstructure:"trends"`
	Server  *server.Config `mapstructure:"server"`
	AI      *AIConfig      `mapstructure:"ai"`
}

type DatasetConfig struct {
	Path string `mapstructure:"path"`
}

type ModelConfig struct {
	Path          string `mapstructure:"path"`
	forest.Config `mapstructure:",squash"`
}

type TrendsConfig struct {
	TopK    int            `mapstructure:"top-k"`
	Weights trends.Weights `mapstructure:"weights"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "placeme matches students with historical placements and predicts their opportunities",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	setDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is placeme.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("dataset", "", "path to the placements CSV")
	rootCmd.PersistentFlags().String("model", "", "path to the persisted model bundle")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("dataset.path", rootCmd.PersistentFlags().Lookup("dataset"))
	viper.BindPFlag("model.path", rootCmd.PersistentFlags().Lookup("model"))
}

func setDefaults(v *viper.Viper) {
	weights := trends.DefaultWeights()

	v.SetDefault("dataset.path", "data/students_opportunities.csv")
	v.SetDefault("model.path", "models/opportunity_model.json")
	v.SetDefault("model.trees", forest.DefaultTrees)
	v.SetDefault("model.seed", forest.DefaultSeed)
	v.SetDefault("model.max-depth", 0)
	v.SetDefault("model.min-samples-split", 2)
	v.SetDefault("model.workers", 0)
	v.SetDefault("trends.top-k", trends.DefaultTopK)
	v.SetDefault("trends.weights.overlap", weights.Overlap)
	v.SetDefault("trends.weights.branch", weights.Branch)
	v.SetDefault("trends.weights.cgpa", weights.CGPA)
	v.SetDefault("server.listen", ":5000")
	v.SetDefault("server.read-timeout", "30s")
	v.SetDefault("server.write-timeout", "5m")
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
}

// bindEnv maps every key onto a PLACEME_ variable, e.g. trends.top-k to
// PLACEME_TRENDS_TOP_K.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	bindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was requested explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
