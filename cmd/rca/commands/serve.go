package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fourkites/rca-core/internal/logging"
	"github.com/fourkites/rca-core/internal/mcpserver"
	"github.com/fourkites/rca-core/internal/rcaserver"
	"github.com/fourkites/rca-core/internal/tracing"
)

var (
	servePort     int
	serveConfig   string
	serveTracing  bool
	serveMCPStdio bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the investigation core as an HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLog(logLevelFlags); err != nil {
			return err
		}
		logger := logging.GetLogger("cmd.serve")

		orch, cfg, err := buildOrchestrator(serveConfig)
		if err != nil {
			return err
		}

		tracingProvider, err := tracing.NewProvider(tracing.Config{
			Enabled:     serveTracing || cfg.TracingEnabled,
			Endpoint:    cfg.TracingEndpoint,
			TLSCAPath:   cfg.TracingTLSCAPath,
			TLSInsecure: cfg.TracingInsecure,
		})
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := tracingProvider.Start(ctx); err != nil {
			logger.ErrorWithErr("failed to start tracing provider, continuing without it", err)
		}
		defer tracingProvider.Stop(context.Background())

		port := servePort
		if port == 0 {
			port = cfg.APIPort
		}
		srv := rcaserver.New(port, orch, nil)

		if serveMCPStdio {
			mcpSrv := mcpserver.New(orch, Version)
			go func() {
				logger.Info("starting stdio MCP transport alongside HTTP")
				if err := mcpSrv.ServeStdio(); err != nil {
					logger.ErrorWithErr("stdio MCP transport exited", err)
				}
			}()
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			logger.Info("shutdown signal received, stopping server")
			cancel()
		}()

		logger.Info("rca serve starting on port %d", port)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config/default)")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "path to config YAML file")
	serveCmd.Flags().BoolVar(&serveTracing, "tracing", false, "enable OTLP tracing export")
	serveCmd.Flags().BoolVar(&serveMCPStdio, "mcp-stdio", false, "also serve the investigate tool over stdio MCP")
}
