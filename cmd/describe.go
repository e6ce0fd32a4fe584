package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/malkhasyann/data-analysis-tool/internal/analysis"
	"github.com/malkhasyann/data-analysis-tool/internal/highlight"
	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
	"github.com/malkhasyann/data-analysis-tool/internal/table"
	"github.com/malkhasyann/data-analysis-tool/internal/utils"
)

var (
	dsActive     string
	dsColumn     string
	dsHighlight  []string
	dsSampleRows int
	dsOutput     string
	dsJSON       bool
	dsQuiet      bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Summarize csv, xlsx or json files",
	Long: `Loads every matched file into one session, activates one of them and prints
row and column metrics plus describe() statistics for each column.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		paths, err := expandInputs(args)
		if err != nil {
			return err
		}
		flags, err := parseHighlight(dsHighlight)
		if err != nil {
			return err
		}

		sess, err := openSession(paths, out, dsQuiet)
		if err != nil {
			return err
		}
		active := dsActive
		if active == "" {
			active = filepath.Base(paths[0])
		}
		if err := sess.Activate(active); err != nil {
			return err
		}
		if dsColumn != "" {
			if err := sess.SelectColumn(dsColumn); err != nil {
				return err
			}
		}
		sess.SetHighlight(flags)

		t, sel, err := sess.Active()
		if err != nil {
			return err
		}
		rep, err := analysis.Build(t, sel.ActiveColumn, dsSampleRows)
		if err != nil {
			return err
		}

		if dsJSON {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else if err := printReport(out, rep); err != nil {
			return err
		}
		if flags.Any() {
			if err := printHighlights(out, t, highlight.Render(t, flags)); err != nil {
				return err
			}
		}

		if dsOutput != "" {
			if err := utils.SafeWriteFile(dsOutput, []byte(rep.Markdown())); err != nil {
				return err
			}
			if !dsQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", dsOutput)
			}
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated
// list.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// openSession reads every path and uploads it into a fresh session.
// Unsupported files are reported and skipped.
func openSession(paths []string, out io.Writer, quiet bool) (*session.Session, error) {
	l, err := loader.New(config().CacheEntries, log)
	if err != nil {
		return nil, err
	}
	sess := session.New(l, log)
	total := len(paths)
	for i, path := range paths {
		if !quiet {
			fmt.Fprintf(out, "[%d/%d] Loading %s...\n", i+1, total, filepath.Base(path))
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		_, rejected := sess.Upload(loader.NewFile(filepath.Base(path), content))
		for _, rj := range rejected {
			fmt.Fprintf(os.Stderr, "⚠ Warning: skipped %s: %v\n", rj.Name, rj.Err)
		}
	}
	if len(sess.Snapshot().Uploads) == 0 {
		return nil, errors.New("no supported input files")
	}
	return sess, nil
}

func parseHighlight(names []string) (highlight.Flags, error) {
	var f highlight.Flags
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "missing", "null", "nulls":
			f.Missing = true
		case "min":
			f.Min = true
		case "max":
			f.Max = true
		case "":
		default:
			return f, errors.Errorf("unsupported --highlight: %s (use missing, min or max)", n)
		}
	}
	return f, nil
}

func printReport(out io.Writer, rep *analysis.Report) error {
	m := rep.Metrics
	metrics, err := pterm.DefaultTable.WithHasHeader().WithData([][]string{
		{"File", "Rows", "Columns", "Null delta"},
		{rep.Name, fmt.Sprint(m.Rows), fmt.Sprint(m.Columns), fmt.Sprintf("%+d in %s", m.Delta, m.Column)},
	}).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, metrics)

	for _, s := range rep.Summaries {
		data := [][]string{{s.Column, s.Kind}}
		for _, kv := range s.Rows() {
			data = append(data, []string{kv[0], kv[1]})
		}
		tbl, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tbl)
	}

	if len(rep.Samples) > 0 {
		data := [][]string{make([]string, len(rep.Summaries))}
		for i, s := range rep.Summaries {
			data[0][i] = s.Column
		}
		data = append(data, rep.Samples...)
		tbl, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tbl)
	}
	return nil
}

func printHighlights(out io.Writer, t *table.Table, v *highlight.View) error {
	names := t.ColumnNames()
	data := [][]string{{"Row", "Column", "Value", "Mark"}}
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, val := range row {
			if m := v.Mark(i, j); m != 0 {
				data = append(data, []string{fmt.Sprint(i), names[j], val.String(), m.String()})
			}
		}
	}
	if len(data) == 1 {
		fmt.Fprintln(out, "No highlighted cells")
	} else {
		tbl, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, tbl)
	}
	if len(v.Skipped) > 0 {
		fmt.Fprintf(out, "min/max not applied to non-numeric columns: %s\n", strings.Join(v.Skipped, ", "))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVar(&dsActive, "active", "", "file to activate (default: first matched file)")
	describeCmd.Flags().StringVar(&dsColumn, "column", "", "column for the null-count delta (default: first column)")
	describeCmd.Flags().StringSliceVar(&dsHighlight, "highlight", nil, "list highlighted cells: missing,min,max")
	describeCmd.Flags().IntVar(&dsSampleRows, "sample-rows", 5, "head rows to include (0 disables)")
	describeCmd.Flags().StringVarP(&dsOutput, "output", "o", "", "also write the markdown summary to this path")
	describeCmd.Flags().BoolVar(&dsJSON, "json", false, "print the report as JSON")
	describeCmd.Flags().BoolVar(&dsQuiet, "quiet", false, "suppress progress output")
}
