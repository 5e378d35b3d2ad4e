package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	serve := newServeCmd(opts)
	cmd := &cobra.Command{
		Use:   "ez-mcp",
		Short: "A small MCP server exposing demo resources, tools and prompts",
		Long: `ez-mcp serves a fixed set of demo capabilities to MCP clients.

Without a subcommand it behaves like 'ez-mcp serve': JSON-RPC messages are
read from stdin and answered on stdout, one message per line. Use --http to
listen on a TCP address instead.

Configuration is layered: built-in defaults, an optional TOML file given with
--config, then environment variables (a .env file in the working directory
seeds them).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		Version:      version,
		RunE:         serve.RunE,
	}
	cmd.SetVersionTemplate(`{{printf "ez-mcp version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a TOML configuration file")
	serve.Flags().VisitAll(func(f *pflag.Flag) { cmd.Flags().AddFlag(f) })

	cmd.AddCommand(serve)
	cmd.AddCommand(newCapabilitiesCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}
