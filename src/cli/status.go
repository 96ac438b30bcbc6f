package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(runtime func() *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the cache state of the challenge data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtime()
			ctx := cmd.Context()

			cached, err := rt.Service.IsCached(ctx)
			if err != nil {
				return fmt.Errorf("failed to read cache: %w", err)
			}
			lastCall, err := rt.Service.LastCall(ctx)
			if err != nil {
				return fmt.Errorf("failed to read last call: %w", err)
			}

			cachedText := "no"
			if cached {
				cachedText = "yes"
			}
			lastCallText := "never"
			if !lastCall.IsZero() {
				lastCallText = lastCall.UTC().Format(time.RFC3339)
			}

			cmd.Printf("Backend:   %s\n", rt.Backend)
			cmd.Printf("Cache key: %s\n", rt.Service.CacheKey())
			cmd.Printf("TTL:       %s\n", rt.Service.TTL())
			cmd.Printf("Cached:    %s\n", cachedText)
			cmd.Printf("Last call: %s\n", lastCallText)
			return nil
		},
	}
}
