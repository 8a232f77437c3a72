// =============================================================================
// Retail Schema Loader - Bench Command
// =============================================================================
//
// This file defines the 'bench' command, which times the same CRUD shapes
// against both document schemas.
//
// COMMAND USAGE:
//   retailloader bench [flags]
//
// FLAGS:
//   --iterations : Timed repetitions per operation
//   --explain    : Print executionStats for the two read patterns
//
// OUTPUT:
//   IDs used -> invoice: 536365  customer: 17850  stock: 85123A
//   TX Create                 : ~0.84 ms
//   TX Read (by customer)     : ~1.12 ms
//   ...
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/retail-schema-loader/internal/bench"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// benchIterations overrides the configured iteration count.
var benchIterations int

// benchExplain requests executionStats dumps for the two read patterns.
var benchExplain bool

// =============================================================================
// BENCH COMMAND DEFINITION
// =============================================================================

// benchCmd represents the 'bench' command.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time CRUD operations against both document schemas",
	Long: `The bench command runs eight CRUD operations - create, read, update, and
delete against each document schema - and reports the mean wall-clock time
per operation.

Reads and updates target a sampled loaded invoice, so the collections must be
loaded first. Creates and deletes use synthetic documents that are cleaned up
within the operation.

With --explain, the query plans (executionStats) for the two read patterns
are printed after the timings: the transaction-centric read by customer id
and the customer-centric read by _id.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the bench command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().IntVar(
		&benchIterations,
		"iterations",
		0,
		"Timed repetitions per operation (default from config)",
	)

	benchCmd.Flags().BoolVar(
		&benchExplain,
		"explain",
		false,
		"Print executionStats for the two read patterns (default from config)",
	)
}

// =============================================================================
// MAIN BENCH FUNCTION
// =============================================================================

// runBench executes the benchmark and prints its report.
func runBench(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	iterations := cfg.Benchmark.Iterations
	if cmd.Flags().Changed("iterations") {
		iterations = benchIterations
	}
	explain := *cfg.Benchmark.Explain
	if cmd.Flags().Changed("explain") {
		explain = benchExplain
	}

	logger := newLogger(cfg)

	store, err := connectStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	runner := bench.New(store, bench.Options{
		Iterations: iterations,
		ReadLimit:  int64(cfg.Benchmark.ReadLimit),
		Explain:    explain,
	}, logger)

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("IDs used -> invoice: %s  customer: %d  stock: %s\n",
		report.Sample.InvoiceNo, report.Sample.CustomerID, report.Sample.StockCode)
	fmt.Printf("Iterations per operation: %d\n\n", report.Iterations)

	for _, m := range report.Measurements {
		if m.Err != nil {
			fmt.Printf("%-26s: ERROR -> %v\n", m.Name, m.Err)
			continue
		}
		fmt.Printf("%-26s: ~%.2f ms\n", m.Name, m.MeanMS)
	}

	if explain {
		fmt.Println("\nExplain (TX read by customer):")
		fmt.Println(report.TxExplain)
		fmt.Println("\nExplain (CC read by _id):")
		fmt.Println(report.CCExplain)
	}

	return nil
}
