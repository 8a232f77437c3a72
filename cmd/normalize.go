// =============================================================================
// Retail Schema Loader - Normalize Command
// =============================================================================
//
// This file defines the 'normalize' command, which breaks the dataset into a
// relational SQLite schema (Customers, Products, Invoices, InvoiceItems).
//
// COMMAND USAGE:
//   retailloader normalize [flags]
//
// FLAGS:
//   --file     : Dataset file (CSV or XLSX), overrides the config
//   --max-rows : Cap the number of data rows read (0 = whole dataset)
//   --db       : SQLite database file, overrides the config
//
// Each run replaces the previous schema wholesale; the tables always reflect
// exactly one dataset read.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
	"github.com/ginjaninja78/retail-schema-loader/internal/relational"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// normalizeFile overrides the configured dataset file.
var normalizeFile string

// normalizeMaxRows caps the number of data rows read.
var normalizeMaxRows int

// normalizeDB overrides the configured SQLite database file.
var normalizeDB string

// =============================================================================
// NORMALIZE COMMAND DEFINITION
// =============================================================================

// normalizeCmd represents the 'normalize' command.
var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize the dataset into a relational SQLite schema",
	Long: `The normalize command reads the retail dataset and loads it into four
relational tables: Customers, Products, Invoices, and InvoiceItems.

Dimension rows (customers, products, invoices) are deduplicated on their
primary key, first occurrence winning; InvoiceItems keeps one row per dataset
row. The previous contents of the tables are replaced on every run.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runNormalize(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the normalize command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringVar(
		&normalizeFile,
		"file",
		"",
		"Dataset file, .csv or .xlsx (default from config)",
	)

	normalizeCmd.Flags().IntVar(
		&normalizeMaxRows,
		"max-rows",
		0,
		"Cap the number of data rows read, 0 = whole dataset (default from config)",
	)

	normalizeCmd.Flags().StringVar(
		&normalizeDB,
		"db",
		"",
		"SQLite database file (default from config)",
	)
}

// =============================================================================
// MAIN NORMALIZE FUNCTION
// =============================================================================

// runNormalize orchestrates one normalize run.
func runNormalize(cmd *cobra.Command) error {
	startTime := time.Now()
	ctx := cmd.Context()

	// =========================================================================
	// STEP 1: CONFIGURATION AND DATASET
	// =========================================================================

	fmt.Println("=== Retail Schema Loader (relational) ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file := cfg.Dataset.File
	if cmd.Flags().Changed("file") {
		file = normalizeFile
	}
	maxRows := cfg.SQLite.MaxRows
	if cmd.Flags().Changed("max-rows") {
		maxRows = normalizeMaxRows
	}
	dbPath := cfg.SQLite.Path
	if cmd.Flags().Changed("db") {
		dbPath = normalizeDB
	}

	logger := newLogger(cfg)

	fmt.Printf("Reading dataset: %s\n", file)
	src, err := dataset.Open(file, maxRows)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	rows, err := dataset.ReadAll(src)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: REBUILD THE SCHEMA
	// =========================================================================

	fmt.Printf("Rebuilding schema in %s\n", dbPath)
	store, err := relational.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Replace(ctx); err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: LOAD THE TABLES
	// =========================================================================

	result, err := store.LoadRows(ctx, rows)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: SUMMARY
	// =========================================================================

	fmt.Println("\n=== Normalize Complete ===")
	fmt.Printf("Rows read:       %d\n", result.RowsRead)
	fmt.Printf("Rows dropped:    %d\n", result.RowsDropped)
	fmt.Printf("Customers:       %d\n", result.Customers)
	fmt.Printf("Products:        %d\n", result.Products)
	fmt.Printf("Invoices:        %d\n", result.Invoices)
	fmt.Printf("Invoice items:   %d\n", result.Items)
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))

	return nil
}
