package main

import (
	"fmt"
	"log"
	"os"

	"github.com/assetstore/backend/internal/config"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Asset store backend",
	Long: `Asset store backend: catalog of sellable assets with owner-managed
pictures and files stored in an S3 compatible bucket.

Commands:
  serve    - Run the HTTP API
  migrate  - Create or update the database schema`,
	SilenceUsage: true,
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration and builds the process logger.
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg := config.New()
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, lg, nil
}
