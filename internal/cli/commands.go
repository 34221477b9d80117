package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/coinvest/internal/modules/deals"
)

func (a *app) listCmd() *cobra.Command {
	var (
		criteria   deals.Criteria
		minTarget  float64
		maxTarget  float64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals matching the given filters",
		Example: `  dealctl list --industry Tech --status Open
  dealctl list --search solar --min-target 100000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("min-target") {
				criteria.MinTarget = &minTarget
			}
			if cmd.Flags().Changed("max-target") {
				criteria.MaxTarget = &maxTarget
			}

			return a.withEnv(cmd, func(ctx context.Context, env *Env, out io.Writer) error {
				batch, err := a.fetch(ctx, env)
				if err != nil {
					return err
				}

				cards := env.Presenter.Cards(deals.Filter(batch.Deals, criteria))
				if jsonOutput {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(cards)
				}

				if batch.Stale {
					fmt.Fprintf(out, "warning: showing cached deals (%s)\n", batch.LastError)
				}
				if len(cards) == 0 {
					fmt.Fprintln(out, "No deals found.")
					return nil
				}
				return writeCards(out, cards)
			})
		},
	}

	cmd.Flags().StringVarP(&criteria.Search, "search", "s", "", "match title or description (case-insensitive)")
	cmd.Flags().StringVar(&criteria.Industry, "industry", deals.AllOption, "only this industry")
	cmd.Flags().StringVar(&criteria.Status, "status", deals.AllOption, "only this status")
	cmd.Flags().Float64Var(&minTarget, "min-target", 0, "minimum target amount")
	cmd.Flags().Float64Var(&maxTarget, "max-target", 0, "maximum target amount")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print cards as JSON")

	return cmd
}

func writeCards(out io.Writer, cards []deals.Card) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tINDUSTRY\tSTATUS\tTARGET\tRAISED\tPROGRESS\tDUE")
	for _, c := range cards {
		progress := "-"
		if c.ShowProgress {
			progress = c.ProgressLabel
		}
		due := c.DueDateDisplay
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Title, c.Industry, c.Status, c.Target, c.Raised, progress, due)
	}
	return tw.Flush()
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals and breakdowns for all deals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd, func(ctx context.Context, env *Env, out io.Writer) error {
				batch, err := a.fetch(ctx, env)
				if err != nil {
					return err
				}

				s := deals.Summarize(batch.Deals)
				fmt.Fprintf(out, "Deals:            %d\n", s.TotalDeals)
				fmt.Fprintf(out, "Open:             %d\n", s.OpenDeals)
				fmt.Fprintf(out, "Total target:     %s\n", env.Presenter.FormatCurrency(s.TotalTarget))
				fmt.Fprintf(out, "Total raised:     %s\n", env.Presenter.FormatCurrency(s.TotalRaised))
				fmt.Fprintf(out, "Average progress: %.1f%%\n", s.AverageProgress)

				writeBuckets(out, "By industry", s.ByIndustry)
				writeBuckets(out, "By status", s.ByStatus)
				return nil
			})
		},
	}
}

func writeBuckets(out io.Writer, title string, buckets []deals.Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, b := range buckets {
		fmt.Fprintf(tw, "  %s\t%d\n", b.Name, b.Count)
	}
	tw.Flush()
}

func (a *app) warningsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warnings",
		Short: "List sheet rows that were skipped or partially read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd, func(ctx context.Context, env *Env, out io.Writer) error {
				batch, err := a.fetch(ctx, env)
				if err != nil {
					return err
				}
				if len(batch.Warnings) == 0 {
					fmt.Fprintln(out, "No row warnings.")
					return nil
				}
				for _, w := range batch.Warnings {
					fmt.Fprintln(out, w.String())
				}
				fmt.Fprintf(out, "\n%d warning(s), %d row(s) skipped.\n", len(batch.Warnings), batch.SkippedRows())
				return nil
			})
		},
	}
}

func (a *app) sourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "source",
		Short: "Describe the configured deal sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd, func(ctx context.Context, env *Env, out io.Writer) error {
				if env.Source == nil {
					return fmt.Errorf("no deal source configured")
				}
				info, err := env.Source.Info(ctx)
				if err != nil {
					return fmt.Errorf("reading source: %w", err)
				}

				fmt.Fprintf(out, "Kind:    %s\n", info.Kind)
				fmt.Fprintf(out, "Title:   %s\n", info.Title)
				if info.Worksheet != "" {
					fmt.Fprintf(out, "Sheet:   %s\n", info.Worksheet)
				}
				fmt.Fprintf(out, "Size:    %d rows x %d columns\n", info.Rows, info.Columns)
				if info.URL != "" {
					fmt.Fprintf(out, "URL:     %s\n", info.URL)
				}
				return nil
			})
		},
	}
}

func (a *app) pruneCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired deal snapshots",
		Example: `  dealctl prune
  dealctl prune --all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEnv(cmd, func(ctx context.Context, env *Env, out io.Writer) error {
				if env.Pruner == nil {
					fmt.Fprintln(out, "Snapshot persistence is disabled.")
					return nil
				}

				if all {
					if err := env.Pruner.Delete(ctx, deals.DefaultSnapshotKey); err != nil {
						return fmt.Errorf("clearing snapshot: %w", err)
					}
					fmt.Fprintln(out, "Deal snapshot cleared.")
					return nil
				}

				deleted, err := env.Pruner.DeleteExpired(ctx)
				if err != nil {
					return fmt.Errorf("pruning snapshots: %w", err)
				}
				if deleted == 0 {
					fmt.Fprintln(out, "Nothing to prune.")
				} else {
					fmt.Fprintf(out, "Pruned %d snapshot(s).\n", deleted)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also delete the current snapshot, even if it has not expired")
	return cmd
}
