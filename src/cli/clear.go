package cli

import (
	"github.com/spf13/cobra"
)

func newClearCachedResponseCommand(runtime func() *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "clear-cached-response",
		Aliases: []string{"psc-clear-cached-response"},
		Short:   "Clear the cached response of the challenge API.",
		Long: `Delete the cached challenge data so the next request fetches it again
from the challenge API.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runtime().Service.ClearCache(cmd.Context(), "") {
				success(cmd.OutOrStdout(), "Cleared the last cached response.")
			} else {
				warning(cmd.ErrOrStderr(), "Failed to clear the last cached response.")
			}
			return nil
		},
	}
}

func newClearLastCallCommand(runtime func() *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "clear-last-call",
		Aliases: []string{"psc-clear-last-call"},
		Short:   "Clear the stored time of the last call to the challenge API.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runtime().Service.ClearLastCall(cmd.Context(), "") {
				success(cmd.OutOrStdout(), "Cleared the time of the last call to the challenge API.")
			} else {
				warning(cmd.ErrOrStderr(), "Failed to clear the time of the last call to the challenge API.")
			}
			return nil
		},
	}
}
