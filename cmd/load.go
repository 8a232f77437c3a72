// =============================================================================
// Retail Schema Loader - Load Command
// =============================================================================
//
// This file defines the 'load' command, which loads the dataset into both
// MongoDB collections.
//
// COMMAND USAGE:
//   retailloader load [flags]
//
// FLAGS:
//   --file        : Dataset file (CSV or XLSX), overrides the config
//   --max-rows    : Cap the number of data rows read (0 = whole dataset)
//   --chunk-size  : Stream the dataset in chunks of N rows (0 = one pass)
//   --dedupe      : Append embedded invoices with set semantics
//   --skip-indexes: Do not create the secondary indexes
//
// LOAD PIPELINE:
//   1. Load configuration and open the dataset
//   2. Connect to MongoDB
//   3. Ensure the secondary indexes (unless skipped)
//   4. Run the load pass: clean, group, build, bulk-write both collections
//   5. Print the summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/retail-schema-loader/internal/dataset"
	"github.com/ginjaninja78/retail-schema-loader/internal/loader"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// loadFile overrides the configured dataset file.
var loadFile string

// loadMaxRows caps the number of data rows read; 0 reads the whole dataset.
var loadMaxRows int

// loadChunkSize streams the load in chunks of this many rows.
var loadChunkSize int

// loadDedupe switches the embedded-invoice append to set semantics.
var loadDedupe bool

// loadSkipIndexes skips secondary index creation.
var loadSkipIndexes bool

// =============================================================================
// LOAD COMMAND DEFINITION
// =============================================================================

// loadCmd represents the 'load' command.
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the dataset into both MongoDB collections",
	Long: `The load command reads the retail dataset and writes it into both document
schemas: one document per invoice in the transaction-centric collection, and
one document per customer (with the invoice embedded) in the customer-centric
collection.

Re-running a load over already-loaded data is tolerated: duplicate invoice
documents are counted and skipped. The embedded invoice arrays grow on every
re-run unless --dedupe (or load.dedupe_embedded) is set.

Rows missing an invoice number, stock code, or quantity are dropped, as are
rows without a customer id; other malformed fields load as nulls.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the load command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(
		&loadFile,
		"file",
		"",
		"Dataset file, .csv or .xlsx (default from config)",
	)

	loadCmd.Flags().IntVar(
		&loadMaxRows,
		"max-rows",
		0,
		"Cap the number of data rows read, 0 = whole dataset (default from config)",
	)

	loadCmd.Flags().IntVar(
		&loadChunkSize,
		"chunk-size",
		0,
		"Stream the dataset in chunks of N rows, 0 = single pass (default from config)",
	)

	loadCmd.Flags().BoolVar(
		&loadDedupe,
		"dedupe",
		false,
		"Append embedded invoices with set semantics (skips rerun duplicates)",
	)

	loadCmd.Flags().BoolVar(
		&loadSkipIndexes,
		"skip-indexes",
		false,
		"Do not create the secondary indexes",
	)
}

// =============================================================================
// MAIN LOAD FUNCTION
// =============================================================================

// runLoad orchestrates one load run.
func runLoad(cmd *cobra.Command) error {
	startTime := time.Now()
	ctx := cmd.Context()

	// =========================================================================
	// STEP 1: CONFIGURATION AND DATASET
	// =========================================================================

	fmt.Println("=== Retail Schema Loader ===")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file := cfg.Dataset.File
	if cmd.Flags().Changed("file") {
		file = loadFile
	}
	maxRows := cfg.Dataset.MaxRows
	if cmd.Flags().Changed("max-rows") {
		maxRows = loadMaxRows
	}
	chunkSize := cfg.Dataset.ChunkSize
	if cmd.Flags().Changed("chunk-size") {
		chunkSize = loadChunkSize
	}
	dedupe := cfg.Load.DedupeEmbedded
	if cmd.Flags().Changed("dedupe") {
		dedupe = loadDedupe
	}
	createIndexes := *cfg.Load.CreateIndexes
	if loadSkipIndexes {
		createIndexes = false
	}

	logger := newLogger(cfg)

	fmt.Printf("Reading dataset: %s\n", file)
	src, err := dataset.Open(file, maxRows)
	if err != nil {
		return fmt.Errorf("failed to open dataset: %w", err)
	}
	defer src.Close()

	// =========================================================================
	// STEP 2: MONGODB CONNECTION
	// =========================================================================

	fmt.Println("Connecting to MongoDB...")
	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	// =========================================================================
	// STEP 3: SECONDARY INDEXES
	// =========================================================================

	if createIndexes {
		fmt.Println("Ensuring secondary indexes...")
		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	// =========================================================================
	// STEP 4: LOAD PASS
	// =========================================================================

	fmt.Println("Loading both collections...")
	ldr := loader.New(store, loader.Options{ChunkSize: chunkSize, Dedupe: dedupe}, logger)
	result, runErr := ldr.Run(ctx, src)

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================
	// The partial counts are worth printing even when the pass failed.

	if runErr != nil {
		fmt.Println("\n=== Load Failed ===")
	} else {
		fmt.Println("\n=== Load Complete ===")
	}
	fmt.Printf("Rows read:            %d\n", result.RowsRead)
	fmt.Printf("Dropped (required):   %d\n", result.RowsDropped)
	fmt.Printf("Dropped (customer):   %d\n", result.RowsMissingCustomer)
	fmt.Printf("Invoices written:     %d\n", result.Invoices)
	fmt.Printf("Invoice duplicates:   %d\n", result.InvoiceDuplicates)
	fmt.Printf("Customer ops applied: %d\n", result.CustomerOps)
	fmt.Printf("Customers created:    %d\n", result.CustomersCreated)
	if result.GroupsSkipped > 0 {
		fmt.Printf("Groups skipped:       %d (unparseable customer id)\n", result.GroupsSkipped)
	}
	fmt.Printf("Chunks:               %d\n", result.Chunks)
	fmt.Printf("Time elapsed:         %s\n", time.Since(startTime).Round(time.Millisecond))

	return runErr
}
