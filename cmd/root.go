package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pmorales/jiratools/internal/ai"
	"github.com/pmorales/jiratools/internal/config"
	"github.com/pmorales/jiratools/internal/jira"
	"github.com/pmorales/jiratools/internal/output"
	"github.com/pmorales/jiratools/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	cfg       *config.Config
	dataStore store.Store

	verbose bool
	cfgFile string

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "jiratools",
	Short: "Jira backlog hygiene and sprint reporting toolkit",
	Long: `jiratools analyzes a Jira project's backlog and sprints.
It scores backlog hygiene (completeness, age, priority and epic coverage),
measures sprint completion against sprint windows, generates AI narrative
summaries with deterministic fallbacks, and publishes reports to Confluence.`,
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
	cobra.OnInitialize(initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default "+config.DefaultPath+")")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// loadConfig resolves configuration on first use so config/version commands
// can run without one.
func loadConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	ui.VerboseLog("configuration loaded from %s", c.Source)
	cfg = c
	return cfg, nil
}

// jiraClient builds the Jira REST client from the resolved configuration.
func jiraClient() (*jira.Client, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return jira.NewClient(c.Jira.URL, c.Jira.Username, c.Jira.APIToken, c.Jira.ProjectKey,
		jira.WithWarnf(ui.Warning)), nil
}

// newSummarizer builds the AI summarizer. A missing or failing provider
// yields a summarizer that serves deterministic fallbacks.
func newSummarizer(cmd *cobra.Command) *ai.Summarizer {
	c, err := loadConfig()
	if err != nil {
		return ai.NewSummarizer(nil, ai.WithWarnf(ui.Warning))
	}

	aiCfg := c.Section("ai")
	var gen ai.Generator

	if key := aiCfg["gemini_api_key"]; key != "" {
		g, err := ai.NewGeminiGenerator(cmd.Context(), key, c.Setting("ai", "gemini_model", ai.DefaultGeminiModel))
		if err != nil {
			ui.Warning("Gemini client unavailable, narrative sections will use fallback text: %v", err)
		} else {
			gen = g
		}
	}
	if gen == nil {
		if key := aiCfg["anthropic_api_key"]; key != "" {
			g, err := ai.NewAnthropicGenerator(key, c.Setting("ai", "anthropic_model", ai.DefaultAnthropicModel))
			if err != nil {
				ui.Warning("Anthropic client unavailable, narrative sections will use fallback text: %v", err)
			} else {
				gen = g
			}
		}
	}
	if gen == nil {
		ui.VerboseLog("no AI provider configured, narrative sections will use fallback text")
	}
	return ai.NewSummarizer(gen, ai.WithWarnf(ui.Warning))
}

// getStore returns the snapshot store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := ""
	if c, err := loadConfig(); err == nil {
		dbPath = c.Setting("storage", "db_path", "")
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot find home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".config", "jiratools", "jiratools.db")
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}
