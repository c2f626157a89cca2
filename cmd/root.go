// =============================================================================
// Revenue/Refund Analyzer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (analyzer)
//   ├── validateCmd (analyzer validate)
//   ├── fixCmd      (analyzer fix)
//   ├── reportCmd   (analyzer report)
//   ├── trendCmd    (analyzer trend)
//   ├── exportCmd   (analyzer export)
//   ├── analyzeCmd  (analyzer analyze)
//   ├── exploreCmd  (analyzer explore)
//   ├── configCmd   (analyzer config init)
//   └── versionCmd  (analyzer version)
//
// CONFIGURATION:
//   The root command loads the YAML configuration and sets up logging before
//   any subcommand runs. A missing config file means built-in defaults.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/buildinfo"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/config"
	"github.com/ginjaninja78/revenue-refund-analyzer/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig and logger are set by the persistent pre-run hook.
var (
	appConfig *config.Config
	logger    logging.Logger = logging.Nop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Revenue/Refund Analyzer - validate and report on revenue and refund records",
	Long: `Revenue/Refund Analyzer checks revenue and refund exports (CSV or XLSX)
against business rules, lets you correct flagged rows, and rolls the validated
data up by salesperson, quarter, subject, class type, student type and date.

Example Usage:
  analyzer validate --revenue rev.xlsx --refund ref.csv
  analyzer fix --revenue rev.xlsx --set revenue:2:教师姓名=王老师 --handoff
  analyzer report --dimension subject --quarter Q1
  analyzer trend --window 7
  analyzer export --what issues --revenue rev.xlsx`,

	Version:      buildinfo.Read().String(),
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		appConfig = cfg

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger = logging.New(os.Stderr, level)
		logger.Debug("Using config file: %s", cfgFile)
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
