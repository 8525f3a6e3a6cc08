package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/alerts"
	"github.com/ponmo-books/ponmo/internal/api"
	"github.com/ponmo-books/ponmo/internal/statements"
)

func newReportCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate financial statements",
	}
	var asJSON bool
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	var asOf string
	tb := &cobra.Command{
		Use:   "trial-balance",
		Short: "Per-account debit and credit balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				rep, err := a.reports.TrialBalance(cmd.Context(), a.scope, day)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				return printTrialBalance(cmd.OutOrStdout(), rep)
			})
		},
	}
	tb.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default all)")

	var start, end string
	pl := &cobra.Command{
		Use:   "profit-loss",
		Short: "Income statement for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDate("start", start)
			if err != nil {
				return err
			}
			to, err := parseDate("end", end)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				rep, err := a.reports.ProfitLoss(cmd.Context(), a.scope, from, to)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				return printProfitLoss(cmd.OutOrStdout(), rep)
			})
		},
	}
	pl.Flags().StringVar(&start, "start", "", "first date YYYY-MM-DD")
	pl.Flags().StringVar(&end, "end", "", "last date YYYY-MM-DD")

	var bsAsOf string
	bs := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity at a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate("as-of", bsAsOf)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				rep, err := a.reports.BalanceSheet(cmd.Context(), a.scope, day)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				return printBalanceSheet(cmd.OutOrStdout(), rep)
			})
		},
	}
	bs.Flags().StringVar(&bsAsOf, "as-of", "", "balance date YYYY-MM-DD (default all)")

	var sumStart, sumEnd string
	summary := &cobra.Command{
		Use:   "summary",
		Short: "All three statements for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDate("start", sumStart)
			if err != nil {
				return err
			}
			to, err := parseDate("end", sumEnd)
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				rep, err := a.reports.FinancialSummary(cmd.Context(), a.scope, from, to)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				w := cmd.OutOrStdout()
				if err := printTrialBalance(w, rep.TrialBalance); err != nil {
					return err
				}
				fmt.Fprintln(w)
				if err := printProfitLoss(w, rep.ProfitLoss); err != nil {
					return err
				}
				fmt.Fprintln(w)
				return printBalanceSheet(w, rep.BalanceSheet)
			})
		},
	}
	summary.Flags().StringVar(&sumStart, "start", "", "first date YYYY-MM-DD")
	summary.Flags().StringVar(&sumEnd, "end", "", "last date YYYY-MM-DD")

	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Warnings about cash, receivables, expenses and activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, func(a *app) error {
				found, err := a.alerts.Generate(cmd.Context(), a.scope)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), api.AlertsResponse{Alerts: found, Counts: alerts.CountBySeverity(found)})
				}
				return printAlerts(cmd.OutOrStdout(), found)
			})
		},
	}

	cmd.AddCommand(tb, pl, bs, summary, alertsCmd)
	return cmd
}

func printAlerts(w io.Writer, found []alerts.Alert) error {
	if len(found) == 0 {
		fmt.Fprintln(w, "No alerts")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tTYPE\tALERT\tDETAIL")
	for _, al := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", al.Severity, al.Type, al.Title, al.Message)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func balancedLabel(ok bool, diff decimal.Decimal) string {
	if ok {
		return "balanced"
	}
	return "OUT OF BALANCE by " + money(diff)
}

func printTrialBalance(w io.Writer, tb statements.TrialBalance) error {
	fmt.Fprintln(w, "TRIAL BALANCE")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "CODE\tACCOUNT\tDEBIT\tCREDIT\t")
	for _, r := range tb.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Code, r.Name, money(r.Debit), money(r.Credit))
	}
	fmt.Fprintf(tw, "\tTOTAL\t%s\t%s\t\n", money(tb.TotalDebits), money(tb.TotalCredits))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, balancedLabel(tb.IsBalanced, tb.TotalDebits.Sub(tb.TotalCredits)))
	return nil
}

func printSection(tw io.Writer, title string, lines []statements.Line, total decimal.Decimal) {
	fmt.Fprintf(tw, "%s\t\t\n", title)
	for _, l := range lines {
		fmt.Fprintf(tw, "  %s %s\t%s\t\n", l.Code, l.Name, money(l.Amount))
	}
	fmt.Fprintf(tw, "Total %s\t%s\t\n", title, money(total))
}

func printProfitLoss(w io.Writer, pl statements.ProfitLoss) error {
	fmt.Fprintln(w, "PROFIT AND LOSS")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	printSection(tw, "Revenue", pl.Revenue, pl.TotalRevenue)
	printSection(tw, "Cost of goods sold", pl.CostOfGoodsSold, pl.TotalCOGS)
	fmt.Fprintf(tw, "Gross profit (%s%%)\t%s\t\n", pl.GrossMargin.StringFixed(2), money(pl.GrossProfit))
	printSection(tw, "Operating expenses", pl.OperatingExpenses, pl.TotalOperatingExpenses)
	fmt.Fprintf(tw, "Net profit (%s%%)\t%s\t\n", pl.NetMargin.StringFixed(2), money(pl.NetProfit))
	return tw.Flush()
}

func printBalanceSheet(w io.Writer, bs statements.BalanceSheet) error {
	fmt.Fprintln(w, "BALANCE SHEET")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	printSection(tw, "Current assets", bs.CurrentAssets, bs.TotalCurrentAssets)
	printSection(tw, "Fixed assets", bs.FixedAssets, bs.TotalFixedAssets)
	fmt.Fprintf(tw, "TOTAL ASSETS\t%s\t\n", money(bs.TotalAssets))
	printSection(tw, "Current liabilities", bs.CurrentLiabilities, sumLines(bs.CurrentLiabilities))
	printSection(tw, "Long-term liabilities", bs.LongTermLiabilities, sumLines(bs.LongTermLiabilities))
	printSection(tw, "Equity", bs.Equity, sumLines(bs.Equity))
	fmt.Fprintf(tw, "Current earnings\t%s\t\n", money(bs.CurrentEarnings))
	fmt.Fprintf(tw, "TOTAL LIABILITIES AND EQUITY\t%s\t\n", money(bs.TotalLiabilitiesAndEquity))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, balancedLabel(bs.IsBalanced, bs.BalancingDifference))
	return nil
}

func sumLines(lines []statements.Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
