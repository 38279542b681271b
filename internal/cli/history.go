package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/forexai/journal"
	"github.com/spf13/cobra"
)

// historyFlags select and order records the way the history page does.
type historyFlags struct {
	db     string
	search string
	status string
	sort   string
}

func (f *historyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "match pair or recommendation")
	cmd.Flags().StringVar(&f.status, "status", "all", "all|completed|active|stopped")
	cmd.Flags().StringVar(&f.sort, "sort", "date", "date|confidence|profit")
}

func (f *historyFlags) query() (journal.Query, error) {
	sort, err := journal.ParseSort(f.sort)
	if err != nil {
		return journal.Query{}, err
	}
	status, err := journal.ParseStatus(f.status)
	if err != nil {
		return journal.Query{}, err
	}
	return journal.Query{Search: f.search, Status: status, Sort: sort}, nil
}

// open uses --db when given, else the configured journal path.
func (f *historyFlags) open(ro *rootOptions) (*journal.SQLite, error) {
	path := f.db
	if path == "" {
		cfg, err := ro.load()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func newHistoryCmd(ro *rootOptions) *cobra.Command {
	f := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the analysis history",
		Long: `Query and export analysis records from the SQLite journal.

Examples:
  forexai history list --status completed --sort profit
  forexai history show <analysis-id>
  forexai history export -o history.csv`,
	}
	cmd.PersistentFlags().StringVarP(&f.db, "db", "d", "", "path to SQLite journal DB (default from config)")
	cmd.AddCommand(newHistoryListCmd(ro, f), newHistoryShowCmd(ro, f), newHistoryExportCmd(ro, f))
	return cmd
}

func newHistoryListCmd(ro *rootOptions, f *historyFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analyses with summary stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			j, err := f.open(ro)
			if err != nil {
				return err
			}
			defer j.Close()

			recs, err := j.List(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("query history: %w", err)
			}
			printHistory(cmd.OutOrStdout(), recs)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func printHistory(w io.Writer, recs []journal.Record) {
	fmt.Fprintf(w, "| %-26s | %-10s | %-16s | %-4s | %4s | %-9s | %9s |\n",
		"ID", "Pair", "Date", "Rec", "Conf", "Status", "Profit")
	fmt.Fprintln(w, "|"+strings.Repeat("-", 28)+"+"+strings.Repeat("-", 12)+"+"+strings.Repeat("-", 18)+"+"+
		strings.Repeat("-", 6)+"+"+strings.Repeat("-", 6)+"+"+strings.Repeat("-", 11)+"+"+strings.Repeat("-", 11)+"|")
	for _, r := range recs {
		fmt.Fprintf(w, "| %-26s | %-10s | %-16s | %-4s | %3d%% | %-9s | %9s |\n",
			r.ID, r.Pair, r.Date()+" "+r.Clock(), r.Recommendation, r.Confidence, r.Status, r.Profit.StringFixed(2))
	}

	st := journal.Summarize(recs)
	fmt.Fprintf(w, "\n%d analyses, %d%% win rate, total profit %s\n", st.Total, st.WinRate, st.TotalProfit.StringFixed(2))
}

func newHistoryShowCmd(ro *rootOptions, f *historyFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <analysis-id>",
		Short: "Print one analysis as an Org-mode journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := f.open(ro)
			if err != nil {
				return err
			}
			defer j.Close()

			rec, err := j.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get analysis: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), journal.FormatRecordOrg(rec))
			return nil
		},
	}
}

func newHistoryExportCmd(ro *rootOptions, f *historyFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analyses as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			j, err := f.open(ro)
			if err != nil {
				return err
			}
			defer j.Close()

			recs, err := j.List(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("query history: %w", err)
			}

			if output == "" {
				output = "trading_history_" + time.Now().UTC().Format("2006-01-02") + ".csv"
			}
			if output == "-" {
				return journal.WriteCSV(cmd.OutOrStdout(), recs)
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := journal.WriteCSV(file, recs); err != nil {
				file.Close()
				return fmt.Errorf("write csv: %w", err)
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d analyses to %s\n", len(recs), output)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", `output CSV path, "-" for stdout (default trading_history_DATE.csv)`)
	return cmd
}
