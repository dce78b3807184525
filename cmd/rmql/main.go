package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/rmql/internal/config"
	"github.com/pders01/rmql/internal/debuglog"
	"github.com/pders01/rmql/internal/graphql"
	"github.com/pders01/rmql/internal/search"
	"github.com/pders01/rmql/internal/storage"
	"github.com/pders01/rmql/internal/tui"
	"github.com/pders01/rmql/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	dbPath     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "rmql",
	Short:         "Browse the Rick and Morty GraphQL API from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rmql %s\n", Version)
		fmt.Fprintln(out, "Rick and Morty GraphQL browser")
		fmt.Fprintln(out, "github.com/pders01/rmql")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := config.DefaultPath()
		if len(args) == 1 {
			target = args[0]
		}
		if err := config.GenerateDefaultConfig(target); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", target)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to database file (overrides config)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, newListCmd(charactersKind), newListCmd(locationsKind))
}

// loadConfig reads the config file and applies flag overrides and logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		p, err := validation.NewPathValidator().ValidateAndSanitize(dbPath)
		if err != nil {
			return nil, fmt.Errorf("invalid --db: %w", err)
		}
		cfg.Database.Path = p
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	}
	return cfg, nil
}

func newClient(cfg *config.Config) *graphql.Client {
	return graphql.NewClient(graphql.Options{
		Endpoint:  cfg.API.Endpoint,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.HTTPTimeout,
		RateLimit: cfg.API.RateLimit,
		RateBurst: cfg.API.RateBurst,
	})
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debuglog.Close()

	if !quiet {
		tui.ShowBanner(cmd.OutOrStdout(), Version)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher := search.New(store, cfg.Database.SearchIndex)
	if c, ok := searcher.(interface{ Close() error }); ok {
		defer c.Close()
	}
	if err := prepareHistory(store, searcher, cfg.API.Endpoint); err != nil {
		return err
	}

	app := tui.NewApp(cfg, store, newClient(cfg), searcher)
	defer app.Close()

	debuglog.Infof("starting against %s", cfg.API.Endpoint)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
