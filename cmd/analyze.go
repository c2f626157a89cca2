package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-refund-analyzer/internal/remote"
)

var analyzeFlags struct {
	input  inputFlags
	filter filterFlags
	apiKey string
	dryRun bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ask a chat-completion service for a written analysis (opt-in)",
	Long: `The analyze command reduces the validated data to totals and group sums
(no names, no individual rows) and sends them to the configured endpoints,
trying each in order until one answers.

The API key comes from --api-key or ANALYZER_API_KEY, which may be set in
the .env file named in the config. Use --dry-run to see exactly what would
be sent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		s, err := buildState(cmd.ErrOrStderr(), &analyzeFlags.input, &analyzeFlags.filter, 0)
		if err != nil {
			return err
		}
		payload := remote.Sanitize(s.Filtered.Revenue, s.Filtered.Refund)

		if analyzeFlags.dryRun {
			return printJSON(out, payload)
		}

		key, err := remote.ResolveAPIKey(analyzeFlags.apiKey, appConfig.Remote.EnvFile)
		if err != nil {
			return err
		}
		client, err := remote.NewClient(remote.Options{
			Endpoints:   appConfig.Remote.Endpoints,
			APIKey:      key,
			Model:       appConfig.Remote.Model,
			Temperature: appConfig.Remote.Temperature,
			MaxTokens:   appConfig.Remote.MaxTokens,
			Timeout:     time.Duration(appConfig.Remote.TimeoutSeconds) * time.Second,
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		text, err := client.Analyze(ctx, payload)
		if errors.Is(err, context.Canceled) {
			return errors.New("analysis cancelled")
		}
		if err != nil {
			// The report itself is fine; only the optional analysis failed.
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %v\n", err)
			return nil
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeFlags.input.register(analyzeCmd)
	analyzeFlags.filter.register(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeFlags.apiKey, "api-key", "", "API key (default $"+remote.EnvAPIKey+")")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.dryRun, "dry-run", false, "Print the payload instead of sending it")
}
