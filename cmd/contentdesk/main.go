package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanssays/contentdesk/internal/api"
	"github.com/hanssays/contentdesk/internal/config"
	"github.com/hanssays/contentdesk/internal/logger"
	"github.com/hanssays/contentdesk/internal/readiness"
	"github.com/hanssays/contentdesk/internal/server"
	"github.com/hanssays/contentdesk/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	servePort  int
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "contentdesk",
	Short:   "Operator console for multi-platform content packaging",
	Long:    "ContentDesk browses aggregated items, promotes them into topic clusters, and composes publish-ready packages for Facebook, Instagram, X and YouTube.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verbose {
			logger.Init("debug")
		} else {
			logger.Init(cfg.Logging.Level)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run the console on (overrides config)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("contentdesk", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/contentdesk/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your data service.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local store and data service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Local store: %s\n\n", st.Path())
		fmt.Println("Journal:")
		fmt.Printf("  Entries: %d\n", stats.JournalEntries)
		fmt.Printf("  Promotions: %d\n", stats.Promotions)
		fmt.Printf("  Regenerations: %d\n", stats.Regenerations)

		fmt.Printf("\nData service: %s\n", cfg.Service.BaseURL)
		client := newClient()
		trends, err := client.Trending(cmd.Context())
		if err != nil {
			fmt.Printf("  Unreachable: %v\n", err)
			return nil
		}
		fmt.Printf("  Reachable, %d topic clusters\n", len(trends))

		actions, err := st.RecentActions(5)
		if err == nil && len(actions) > 0 {
			fmt.Println("\nRecent actions:")
			for _, a := range actions {
				fmt.Printf("  %s  %-10s %s\n", a.At, a.Kind, a.Detail)
			}
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local console",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		fmt.Printf("Starting console at http://localhost:%d\n", cfg.Server.Port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, st)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [cluster-id]",
	Short: "Run readiness checks against a cluster's package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		clusterID := args[0]
		client := newClient()

		pkg, err := client.Package(cmd.Context(), clusterID)
		if err != nil {
			return fmt.Errorf("loading package for %s: %w", clusterID, err)
		}

		result := readiness.Evaluate(*pkg, time.Now())

		fmt.Printf("Package %s (%s)\n\n", clusterID, pkg.PrimaryTopic)
		for _, p := range readiness.Platforms {
			rep := result.Report[p]
			fmt.Printf("%-10s %s\n", p, strings.ToUpper(rep.Status().String()))
			printFindings("  error:   ", rep.Errors)
			printFindings("  warning: ", rep.Warnings)
		}

		fmt.Println()
		if result.OverallBlocked {
			fmt.Println("Publishing blocked.")
			return fmt.Errorf("package %s is not ready", clusterID)
		}
		fmt.Println("Ready to publish.")
		return nil
	},
}

func printFindings(prefix string, findings []string) {
	for _, f := range findings {
		fmt.Printf("%s%s\n", prefix, f)
	}
}

func newClient() *api.Client {
	return api.New(cfg.Service.BaseURL, cfg.ServiceTimeout(), cfg.Service.RequestsPerSecond)
}

func openStore() (*store.Store, error) {
	return store.Open(filepath.Join(cfg.GetDataDir(), "contentdesk.db"))
}
