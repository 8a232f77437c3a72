// =============================================================================
// Retail Schema Loader - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Retail Schema Loader CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   retailloader load        - Load the retail dataset into both MongoDB schemas
//   retailloader normalize   - Normalize the dataset into a relational SQLite file
//   retailloader bench       - Benchmark CRUD operations against both schemas
//   retailloader invoice     - Read, update, or delete individual invoices
//   retailloader version     - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - config.yaml    : Runtime configuration (dataset path, MongoDB, SQLite)
//   - .env           : Optional environment overrides (MONGO_URI)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/retail-schema-loader/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
