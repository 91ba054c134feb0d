package commands

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/tabscrape/internal/logger"
	"github.com/jmylchreest/tabscrape/internal/server"
	"github.com/jmylchreest/tabscrape/pkg/fetcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API over HTTP",
	Long: `Start an HTTP server exposing table extraction.

Endpoints:
  POST /api/extract/url   JSON {"url": "..."}
  POST /api/extract/pdf   multipart upload, field "file"
  POST /api/export        JSON {"tables": [...], "select": [1,3], "filename": "..."}
  GET  /api/export/{id}   download the workbook
  GET  /healthz

Exports are kept in memory for --export-ttl.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Duration("export-ttl", 15*time.Minute, "how long exports stay downloadable")
	flags.String("fetch-mode", string(fetcher.ModeStatic), "fetch mode: static, dynamic, auto")
	flags.Duration("timeout", fetcher.DefaultTimeout, "request timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), map[string]string{
		"addr":       "server.addr",
		"export-ttl": "server.export_ttl",
		"fetch-mode": "fetch_mode",
		"timeout":    "timeout",
	})
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ext, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ext.Close() }()

	logger.Debug("server config", "export_ttl", cfg.Server.ExportTTL, "config_file", viper.ConfigFileUsed())
	logInfo("Serving on %s", cfg.Server.Addr)
	return server.New(ext, cfg.Server.ExportTTL).ListenAndServe(ctx, cfg.Server.Addr)
}
