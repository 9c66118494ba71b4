package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/omnireplyhq/omnireply/internal/auth"
	"github.com/omnireplyhq/omnireply/internal/config"
	"github.com/omnireplyhq/omnireply/internal/db"
	"github.com/omnireplyhq/omnireply/internal/logger"
)

var configPath string // overridable via --config flag

func main() {
	root := &cobra.Command{
		Use:   "omnireply",
		Short: "OmniReply: multi-tenant conversational response service",
		Long:  "OmniReply answers inbound customer messages across channels, with per-tenant knowledge, rules and conversation memory.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.toml (default: ./config.toml)")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the message API server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			if err := db.Migrate(cfg.Postgres); err != nil {
				return err
			}
			logger.L.Info("migrations applied")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var tenantID int64
	var expiresIn time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			signed, expiresAt, err := auth.GenerateToken(tenantID, cfg.Auth.JWTSecret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			fmt.Fprintf(os.Stderr, "expires: %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().Int64Var(&tenantID, "tenant", 0, "tenant id the token authenticates")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func loadConfig() (config.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		path = configPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
