// =============================================================================
// Revenue/Refund Analyzer - Main Entry Point
// =============================================================================
//
// USAGE:
//   analyzer validate  - Check uploads against the business rules
//   analyzer fix       - Correct flagged rows and validate again
//   analyzer report    - Aggregate validated data
//   analyzer trend     - Daily trend and moving average
//   analyzer export    - Write tables to XLSX or CSV
//   analyzer analyze   - Optional remote written analysis
//   analyzer explore   - Interactive filtering
//   analyzer version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : parsing, validation, aggregation, reporting
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/revenue-refund-analyzer/cmd"
)

func main() {
	cmd.Execute()
}
