package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/malkhasyann/data-analysis-tool/internal/chart"
	"github.com/malkhasyann/data-analysis-tool/internal/loader"
	"github.com/malkhasyann/data-analysis-tool/internal/server"
	"github.com/malkhasyann/data-analysis-tool/internal/session"
)

var (
	svListen   string
	svViewRows int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interactive dashboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := config()
		addr := c.ListenAddr
		if cmd.Flags().Changed("listen") && svListen != "" {
			addr = svListen
		}

		l, err := loader.New(c.CacheEntries, log)
		if err != nil {
			return err
		}
		sessions := session.NewManager(l, c.SessionTTL(), log)
		srv, err := server.New(sessions, server.Options{
			MaxUploadBytes: c.MaxUploadBytes(),
			AllowedOrigins: c.AllowedOrigins,
			Renderer: chart.Renderer{
				Width:  c.ChartWidth,
				Height: c.ChartHeight,
				Bins:   c.HistogramBins,
			},
			ViewRows: svViewRows,
		}, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() { _ = sessions.Run(ctx) }()

		fmt.Printf("✓ Dashboard on http://%s\n", displayAddr(addr))
		return srv.ListenAndServe(ctx, addr)
	},
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&svListen, "listen", "", "listen address (overrides config listen_addr)")
	serveCmd.Flags().IntVar(&svViewRows, "view-rows", 200, "rows shown in the dashboard grid")
}
