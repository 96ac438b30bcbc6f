// Package cli implements the operator command line for the challenge service.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/spf13/cobra"
)

// operatorName identifies CLI invocations in logs
const operatorName = "cli"

// Runtime is what the commands operate on
type Runtime struct {
	Service   *service.ChallengeService
	Presenter *service.TablePresenter
	Backend   string
}

// Loader builds the Runtime for a command. The returned func releases it.
type Loader func(ctx context.Context) (*Runtime, func(), error)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headingColor = color.New(color.Bold)
)

// NewRootCommand assembles the command tree. Every command runs with an
// operator identity, so clearing never needs a nonce.
func NewRootCommand(load Loader) *cobra.Command {
	var noColor bool
	var runtime *Runtime
	var release func()

	root := &cobra.Command{
		Use:           "challenge",
		Short:         "Manage the cached Strategy11 challenge data.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if noColor {
				color.NoColor = true
			}

			ctx := service.WithOperator(cmd.Context(), operatorName)
			cmd.SetContext(ctx)

			rt, done, err := load(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			runtime, release = rt, done
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if release != nil {
				release()
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	current := func() *Runtime { return runtime }

	root.AddCommand(
		newClearCachedResponseCommand(current),
		newClearLastCallCommand(current),
		newShowCommand(current),
		newStatusCommand(current),
	)
	return root
}

func success(w io.Writer, msg string) {
	_, _ = successColor.Fprint(w, "Success: ")
	_, _ = fmt.Fprintln(w, msg)
}

func warning(w io.Writer, msg string) {
	_, _ = warningColor.Fprint(w, "Warning: ")
	_, _ = fmt.Fprintln(w, msg)
}
