package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/taostats-mcp/tools"
)

// toolView is the listing shape with the schema decoded so YAML renders
// it as a mapping.
type toolView struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"inputSchema,omitempty" yaml:"inputSchema,omitempty"`
}

func newToolsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the MCP tools and their input schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Listing never calls the fetcher.
			return writeTools(cmd.OutOrStdout(), tools.New(nil).List(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json or yaml")
	return cmd
}

func writeTools(w io.Writer, list []tools.Tool, format string) error {
	switch format {
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\n", color.GreenString(t.Name), t.Description)
		}
		return tw.Flush()

	case "json", "yaml":
		views := make([]toolView, 0, len(list))
		for _, t := range list {
			view := toolView{Name: t.Name, Description: t.Description}
			if err := json.Unmarshal(t.InputSchema, &view.InputSchema); err != nil {
				return fmt.Errorf("decode schema of %s: %w", t.Name, err)
			}
			views = append(views, view)
		}
		if format == "yaml" {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(views); err != nil {
				return err
			}
			return enc.Close()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)

	default:
		return fmt.Errorf("unknown output format %q: want table, json or yaml", format)
	}
}
