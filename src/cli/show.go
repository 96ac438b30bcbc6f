package cli

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/spf13/cobra"
)

func newShowCommand(runtime func() *Runtime) *cobra.Command {
	var orderBy, order string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the challenge data as a sorted table.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt := runtime()
			spec := domain.ParseSortSpec(orderBy, order)
			view := rt.Presenter.BuildView(cmd.Context(), rt.Service, spec)
			return writeView(cmd.OutOrStdout(), cmd.ErrOrStderr(), view)
		},
	}
	cmd.Flags().StringVar(&orderBy, "orderby", string(domain.SortColumnID), "Column to sort by: id, fname, lname, email or date")
	cmd.Flags().StringVar(&order, "order", string(domain.SortAsc), "Sort direction: asc or desc")
	return cmd
}

func writeView(out, errOut io.Writer, view service.TableView) error {
	for _, notice := range view.Notices {
		warning(errOut, plainNotice(notice))
	}

	if view.Title != "" {
		if _, err := headingColor.Fprintln(out, view.Title); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(out)

	headers := make([]string, 0, len(view.Columns))
	for _, col := range view.Columns {
		label := col.Label
		if col.Sorted {
			label += sortMarker(col.Direction)
		}
		headers = append(headers, label)
	}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	if len(view.Cells) > 0 {
		if err := table.Bulk(view.Cells); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "%d rows sorted by %s %s\n", len(view.Rows), view.Sort.Column, view.Sort.Direction)
	return err
}

func sortMarker(direction domain.SortDirection) string {
	if direction == domain.SortDesc {
		return " ▼"
	}
	return " ▲"
}

// plainNotice turns an HTML notice into terminal text
func plainNotice(notice string) string {
	return html.UnescapeString(strings.ReplaceAll(notice, "<br>", "\n  "))
}
