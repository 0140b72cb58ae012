package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/calchat/internal/calendar"
)

// checkEventCount is how many upcoming events check shows.
const checkEventCount = 5

// calendarReader is what check needs from the calendar client.
type calendarReader interface {
	CalendarID() string
	ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error)
	UpcomingEvents(ctx context.Context, n int) ([]calendar.EventSummary, error)
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify calendar access and show upcoming events",
		Long: `Authenticate with Google, list the calendars you can access and show the
next few events of the configured calendar.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			return runCheck(ctx, cmd.OutOrStdout(), a.calendar)
		},
	}
}

func runCheck(ctx context.Context, out io.Writer, cal calendarReader) error {
	calendars, err := cal.ListCalendars(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Found %d calendar(s):\n", len(calendars))
	for _, c := range calendars {
		marker := ""
		if c.Primary {
			marker = " (primary)"
		}
		fmt.Fprintf(out, "  - %s%s [%s]\n", c.Summary, marker, c.ID)
	}

	events, err := cal.UpcomingEvents(ctx, checkEventCount)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	if len(events) == 0 {
		fmt.Fprintf(out, "No upcoming events found in %s.\n", cal.CalendarID())
		return nil
	}
	fmt.Fprintf(out, "Next %d event(s) in %s:\n", len(events), cal.CalendarID())
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %s\n", e.Start, e.Title)
	}
	return nil
}
