package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/calchat/internal/calendar"
)

// eventLister is what export needs from the calendar client.
type eventLister interface {
	ListEvents(ctx context.Context, q calendar.ListQuery) ([]calendar.EventSummary, error)
}

func newExportCmd() *cobra.Command {
	var (
		outputFile string
		start, end string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export calendar events as an iCalendar file",
		Long: `Write the events of the configured calendar in iCalendar (.ics) format.

Without --start and --end the current month is exported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			q := calendar.ListQuery{TimeMin: start, TimeMax: end}
			if start == "" && end == "" {
				q.Period = calendar.PeriodCurrentMonth
			}

			if outputFile == "" {
				return runExport(ctx, cmd.OutOrStdout(), a.calendar, q)
			}

			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := runExport(ctx, f, a.calendar, q); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Events written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&start, "start", "", "Start of the range, e.g. 2024-03-01T00:00:00")
	cmd.Flags().StringVar(&end, "end", "", "End of the range, e.g. 2024-03-31T23:59:59")

	return cmd
}

func runExport(ctx context.Context, w io.Writer, cal eventLister, q calendar.ListQuery) error {
	events, err := cal.ListEvents(ctx, q)
	if err != nil {
		return err
	}
	return calendar.WriteICS(w, events, time.Now().UTC())
}
