package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/examples/ezdemo"
	"github.com/ggoodman/ez-mcp/httptransport"
	"github.com/ggoodman/ez-mcp/internal/config"
	"github.com/ggoodman/ez-mcp/internal/logctx"
	"github.com/ggoodman/ez-mcp/mcp"
	"github.com/ggoodman/ez-mcp/mcpservice"
	"github.com/ggoodman/ez-mcp/stdio"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	*rootOptions
	httpAddr string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo capabilities over stdio or HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "Serve HTTP on this address (e.g. :8080) instead of stdio")
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.httpAddr != "" {
		cfg.HTTPAddr = opts.httpAddr
	}

	log, err := newLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	for _, o := range reg.Overlaps() {
		log.Warn("registry.overlap", slog.String("first", o.First), slog.String("second", o.Second))
	}

	srvOpts := []mcpservice.ServerOption{
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: cfg.ServerName, Version: cfg.ServerVersion}),
	}
	if cfg.ProtocolVersion != "" {
		srvOpts = append(srvOpts, mcpservice.WithPreferredProtocolVersion(cfg.ProtocolVersion))
	}
	srv := mcpservice.NewServer(capability.NewDispatcher(reg, capability.WithLogger(log)), srvOpts...)

	transport := "stdio"
	if cfg.HTTPAddr != "" {
		transport = "http"
	}
	log.Info("server.start",
		slog.String("transport", transport),
		slog.String("environment", cfg.Environment),
		slog.String("greeting_prefix", cfg.GreetingPrefix),
		slog.Int("resources", reg.Count(capability.KindResource)),
		slog.Int("tools", reg.Count(capability.KindTool)),
		slog.Int("prompts", reg.Count(capability.KindPrompt)),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.HTTPAddr != "" {
		return serveHTTP(ctx, log, cfg.HTTPAddr, httptransport.New(srv, httptransport.WithLogger(log)))
	}

	h := stdio.NewHandler(srv,
		stdio.WithIO(cmd.InOrStdin(), cmd.OutOrStdout()),
		stdio.WithLogger(log),
	)
	if err := h.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server.stop")
	return nil
}

func serveHTTP(ctx context.Context, log *slog.Logger, addr string, h http.Handler) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http.listen", slog.String("addr", addr))
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("server.stop")
	return nil
}

func buildRegistry(cfg *config.Config) (*capability.Registry, error) {
	b := capability.NewBuilder()
	ezdemo.Register(b, ezdemo.DefaultDataset(), ezdemo.Settings{
		Environment:    cfg.Environment,
		GreetingPrefix: cfg.GreetingPrefix,
	})
	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build capability registry: %w", err)
	}
	return reg, nil
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return slog.New(logctx.New(h)), nil
}
