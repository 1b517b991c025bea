package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/blogdesk/blogdesk/internal/analytics"
	"github.com/blogdesk/blogdesk/internal/blob"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

func newAnalyticsCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Read or reset the analytics snapshot",
	}
	cmd.AddCommand(newAnalyticsShowCmd(open), newAnalyticsPurgeCmd(open))
	return cmd
}

// withAggregator opens the backend, runs fn and closes the backend.
func withAggregator(ctx context.Context, open opener, fn func(*analytics.Aggregator) error) error {
	p, cfg, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(ctx); err != nil {
			logger.Warnf("close blob backend: %v", err)
		}
	}()
	return fn(analytics.NewAggregator(p.Store(blob.StoreAnalytics), cfg.Analytics.CacheTTL))
}

func newAnalyticsShowCmd(open opener) *cobra.Command {
	var (
		top    int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the analytics summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAggregator(cmd.Context(), open, func(a *analytics.Aggregator) error {
				snap, err := a.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				sum := analytics.Summarize(snap, top)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(sum)
				}
				return printSummary(cmd.OutOrStdout(), sum)
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "rows per breakdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printSummary(w io.Writer, s analytics.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "total views\t%d\n", s.TotalViews)
	fmt.Fprintf(tw, "unique visitors\t%d\n", s.UniqueVisitors)
	if !s.LastUpdated.IsZero() {
		fmt.Fprintf(tw, "last updated\t%s\n", s.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	}
	for _, sec := range []struct {
		title string
		rows  []analytics.Stat
	}{
		{"pages", s.TopPages},
		{"referrers", s.TopReferrers},
		{"browsers", s.Browsers},
		{"devices", s.Devices},
		{"countries", s.Countries},
	} {
		if len(sec.rows) == 0 {
			continue
		}
		fmt.Fprintf(tw, "\n%s\t\n", sec.title)
		for _, r := range sec.rows {
			fmt.Fprintf(tw, "  %s\t%d\n", r.Name, r.Count)
		}
	}
	return tw.Flush()
}

func newAnalyticsPurgeCmd(open opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Reset all analytics counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to purge without --yes")
			}
			return withAggregator(cmd.Context(), open, func(a *analytics.Aggregator) error {
				if err := a.Purge(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "analytics purged")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
