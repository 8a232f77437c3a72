// =============================================================================
// Retail Schema Loader - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (retailloader)
//   ├── loadCmd      (retailloader load)
//   ├── normalizeCmd (retailloader normalize)
//   ├── benchCmd     (retailloader bench)
//   ├── invoiceCmd   (retailloader invoice get|by-customer|update-quantity|delete)
//   └── versionCmd   (retailloader version)
//
// The root command owns the global flags (--config, --verbose) and the
// helpers every subcommand shares: configuration loading, logger setup, and
// the MongoDB connection with its connectivity hint.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/retail-schema-loader/internal/config"
	"github.com/ginjaninja78/retail-schema-loader/internal/mongostore"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose forces debug-level logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "retailloader",
	Short: "Retail Schema Loader - Load retail transactions into two MongoDB document schemas",
	Long: `Retail Schema Loader is a CLI tool that loads the "Online Retail"
transaction dataset (CSV or XLSX) into two alternate MongoDB document schemas:
a transaction-centric collection with one document per invoice, and a
customer-centric collection embedding each customer's invoice history.

The same dataset can also be normalized into a relational SQLite schema, and
the two document designs can be compared with a CRUD benchmark.

Example Usage:
  retailloader load --file "Online Retail.xlsx"  # Load both collections
  retailloader normalize --db retail.db          # Build the SQLite schema
  retailloader bench --explain                   # Time CRUD on both schemas
  retailloader invoice delete 536365             # Dual-write delete`,

	// With no subcommand there is nothing to do but explain the tool.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file (missing default file is fine)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration honoring the --config flag. The default
// file may be absent; an explicitly named one must exist.
func loadConfig() (*config.Config, error) {
	if rootCmd.PersistentFlags().Changed("config") {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
	}
	return config.Load(cfgFile)
}

// newLogger builds the root logger from the config and the --verbose flag.
// Subcommands pass it down by value; nothing logs through a global.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// connectStore opens the MongoDB connection, translating unreachable-server
// failures into the hint users actually need.
func connectStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*mongostore.Store, error) {
	store, err := mongostore.Connect(ctx, mongostore.Config{
		URI:                cfg.Mongo.URI,
		Database:           cfg.Mongo.Database,
		InvoiceCollection:  cfg.Mongo.InvoiceCollection,
		CustomerCollection: cfg.Mongo.CustomerCollection,
	}, logger)
	if err != nil {
		if mongostore.IsUnavailable(err) {
			fmt.Fprintln(os.Stderr, "Could not reach the MongoDB server. Check MONGO_URI, the network/firewall, or your VPN.")
		}
		return nil, err
	}
	return store, nil
}
