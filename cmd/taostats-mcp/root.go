package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/taostats-mcp/config"
)

type rootOptions struct {
	configFile string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	v := config.New()
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "taostats-mcp",
		Short: "TaoStats MCP bridge",
		Long: `taostats-mcp exposes the TaoStats API for the Bittensor network as MCP
tools over stdio. Responses are cached in memory with TTLs chosen per
endpoint, and upstream failures degrade to empty results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML config file")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	bindFlag(v, "log.level", root, "log-level")

	root.AddCommand(
		newServeCmd(v, opts),
		newFetchCmd(v, opts),
		newToolsCmd(),
		newVersionCmd(),
	)
	return root
}

// bindFlag binds a persistent or local flag of cmd to key.
func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(name)
	}
	cobra.CheckErr(v.BindPFlag(key, f))
}
