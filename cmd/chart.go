package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
	"github.com/malkhasyann/data-analysis-tool/internal/utils"
)

var (
	chKind   string
	chX      string
	chY      string
	chColor  string
	chArea   bool
	chFormat string
	chOutput string
	chWidth  int
	chHeight int
	chBins   int
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Render a line, area, bar, histogram or scatter chart to png or svg",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		kind, err := chart.ParseKind(chKind)
		if err != nil {
			return err
		}
		area := chArea
		if kind == chart.KindArea {
			kind, area = chart.KindLine, true
		}

		format, err := outputFormat(chFormat, chOutput)
		if err != nil {
			return err
		}
		path := args[0]
		output := chOutput
		if output == "" {
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			output = fmt.Sprintf("%s.%s.%s", base, kind, format)
		}

		sess, err := openSession([]string{path}, out, true)
		if err != nil {
			return err
		}
		if err := sess.Activate(filepath.Base(path)); err != nil {
			return err
		}
		var panel session.Panel
		switch kind {
		case chart.KindLine:
			panel, err = session.PanelLine, sess.SetLine(chX, chY, area)
		case chart.KindBar:
			panel, err = session.PanelBar, sess.SetBar(chX, chY)
		case chart.KindHistogram:
			panel, err = session.PanelHistogram, sess.SetHistogram(chX, chY)
		case chart.KindScatter:
			panel, err = session.PanelScatter, sess.SetScatter(chX, chY, chColor)
		}
		if err != nil {
			return err
		}
		spec, t, err := sess.ChartSpec(panel)
		if err != nil {
			return err
		}

		c := config()
		r := chart.Renderer{Width: c.ChartWidth, Height: c.ChartHeight, Bins: c.HistogramBins}
		if cmd.Flags().Changed("width") {
			r.Width = chWidth
		}
		if cmd.Flags().Changed("height") {
			r.Height = chHeight
		}
		if cmd.Flags().Changed("bins") {
			r.Bins = chBins
		}
		var buf bytes.Buffer
		if err := r.Render(&buf, spec, t, format); err != nil {
			return errors.Wrap(err, "render")
		}
		if err := utils.SafeWriteFile(output, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %s (%s)\n", output, spec.Title())
		return nil
	},
}

// outputFormat picks the format from --format, else the output extension,
// else png.
func outputFormat(flag, output string) (chart.Format, error) {
	switch {
	case flag != "":
		return chart.ParseFormat(flag)
	case filepath.Ext(output) != "":
		return chart.ParseFormat(filepath.Ext(output))
	}
	return chart.FormatPNG, nil
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVar(&chKind, "kind", "line", "chart kind: line|area|bar|histogram|scatter")
	chartCmd.Flags().StringVar(&chX, "x", "", "x column")
	chartCmd.Flags().StringVar(&chY, "y", "", "y column")
	chartCmd.Flags().StringVar(&chColor, "color", "", "scatter color column (must be the x or y column)")
	chartCmd.Flags().BoolVar(&chArea, "area", false, "fill the area under a line chart")
	chartCmd.Flags().StringVar(&chFormat, "format", "", "png|svg (default: from --output, else png)")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "output path (default: <file>.<kind>.<format>)")
	chartCmd.Flags().IntVar(&chWidth, "width", 0, "image width in pixels (overrides config)")
	chartCmd.Flags().IntVar(&chHeight, "height", 0, "image height in pixels (overrides config)")
	chartCmd.Flags().IntVar(&chBins, "bins", 0, "histogram bins, 0 for auto (overrides config)")
	_ = chartCmd.MarkFlagRequired("x")
	_ = chartCmd.MarkFlagRequired("y")
}
