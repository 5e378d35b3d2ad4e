package main

import (
	"encoding/json"
	"fmt"

	"github.com/ggoodman/ez-mcp/capability"
	"github.com/ggoodman/ez-mcp/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCapabilitiesCmd(root *rootOptions) *cobra.Command {
	var format, kind string
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Print every registered resource, tool and prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			reg, err := buildRegistry(cfg)
			if err != nil {
				return err
			}
			entries := reg.Entries()
			if kind != "" {
				k, err := capability.ParseKind(kind)
				if err != nil {
					return err
				}
				entries = nil
				for _, r := range reg.EntriesOf(k) {
					entries = append(entries, r.Descriptor())
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(entries); err != nil {
					return fmt.Errorf("failed to encode yaml: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			default:
				return fmt.Errorf("unsupported format %q: want yaml or json", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVar(&kind, "kind", "", "Only print one kind: resource, tool or prompt")
	return cmd
}
