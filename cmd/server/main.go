package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tomotachi/backend/internal/config"
	"tomotachi/backend/pkg/logger"
)

var (
	cfgFile string
	v       = config.NewViper()
)

// @title           Tomotachi API
// @version         1.0
// @description     Friendship, subscription and block relationships between email identities.
// @host            localhost:8080
// @BasePath        /api/v1
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "server",
		Short:        "Tomotachi relationship service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "env file to load (default ./.env)")
	root.PersistentFlags().String("driver", "", "store driver: postgres, mysql, sqlite, memory, redis or neo4j")
	_ = v.BindPFlag("STORE_DRIVER", root.PersistentFlags().Lookup("driver"))

	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// bootstrap loads the configuration and builds the logger shared by every command.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Info("Configuration loaded", zap.String("file", used))
	}
	return cfg, log, nil
}
