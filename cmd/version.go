// =============================================================================
// Revenue/Refund Analyzer - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   analyzer version            release stamp plus the files this run uses
//   analyzer version --short    just the version number
//
// The stamp comes from internal/buildinfo; set it at build time with
//   go build -ldflags "-X 'github.com/ginjaninja78/revenue-refund-analyzer/internal/buildinfo.Version=0.3.0'"
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/buildinfo"
	"github.com/ginjaninja78/revenue-refund-analyzer/pkg/utils"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the release stamp and the config, store and output locations",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		info := buildinfo.Read()
		if versionShort {
			fmt.Fprintln(out, info.Version)
			return nil
		}

		w := newTable(out)
		fmt.Fprintf(w, "analyzer\t%s\n", info)
		fmt.Fprintf(w, "go\t%s\n", info.GoVersion)
		fmt.Fprintf(w, "config\t%s\n", describePath(cfgFile))
		fmt.Fprintf(w, "store\t%s\n", describePath(appConfig.Store.Path))
		fmt.Fprintf(w, "output\t%s (%s)\n", appConfig.Output.Dir, appConfig.Output.Format)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}

// describePath marks paths that do not exist yet; defaults are used then.
func describePath(path string) string {
	switch {
	case path == "":
		return "(defaults)"
	case utils.FileExists(path):
		return path
	default:
		return path + " (not found)"
	}
}
