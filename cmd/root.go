package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/revuhq/revu/internal/linear"
	"github.com/revuhq/revu/internal/llm"
	"github.com/revuhq/revu/internal/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui *output.UI

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "revu",
	Short: "AI-assisted pull request reviews",
	Long: `revu reviews pull requests with an AI model: it gathers the PR's diff
and your repo's review guidelines, asks the model for findings, lets you
approve each one, and posts the approved subset back to GitHub. It can
also draft follow-up tickets and file them in Linear.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/revu/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "revu")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REVU")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	cfgDir := filepath.Join(home, ".config", "revu")

	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("github.pr_list_limit", 15)
	viper.SetDefault("review.max_diff_chars", 100000)
	viper.SetDefault("review.records_dir", filepath.Join(cfgDir, "reviews"))
	viper.SetDefault("linear.api_key", "")
	viper.SetDefault("linear.team_id", "")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// anthropicKey returns the configured API key, checked eagerly so a doomed
// invocation fails before any network call.
func anthropicKey() (string, error) {
	key := viper.GetString("anthropic.api_key")
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not set (set env var or anthropic.api_key in config)")
	}
	return key, nil
}

// llmClient builds the Anthropic client from config.
func llmClient() (*llm.Client, error) {
	key, err := anthropicKey()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(key, viper.GetString("anthropic.model")), nil
}

// linearClient builds the Linear client from config.
func linearClient() (*linear.Client, error) {
	key := viper.GetString("linear.api_key")
	if key == "" {
		key = os.Getenv("LINEAR_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("LINEAR_API_KEY not set (set env var or linear.api_key in config)")
	}
	return linear.NewClient(key), nil
}
