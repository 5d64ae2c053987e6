package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/taostats-mcp/fetch"
)

type fetchOptions struct {
	version string
	dtao    bool
	repeat  int
}

func newFetchCmd(v *viper.Viper, opts *rootOptions) *cobra.Command {
	fo := &fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch <endpoint> [key=value...]",
		Short: "Issue one cached TaoStats call and print the result",
		Long: `Issue a TaoStats call through the same cache and executor the server
uses, then print where the result came from and the payload.

Integer values are sent as numbers; everything else is sent as a string.`,
		Example: `  taostats-mcp fetch price/latest asset=tao
  taostats-mcp fetch tradingview/udf/history --dtao symbol=SUB-19 resolution=1D
  taostats-mcp fetch block limit=5 --repeat 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, v, opts.configFile)
			if err != nil {
				return err
			}
			defer func() { _ = a.close(ctx) }()

			req := fetch.Request{Endpoint: args[0], Params: params, Version: fo.version, UseDtao: fo.dtao}
			var out fetch.Outcome
			for range max(fo.repeat, 1) {
				out = a.fetcher.Do(ctx, req)
				printOutcome(cmd.ErrOrStderr(), out)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Value)
		},
	}

	cmd.Flags().StringVar(&fo.version, "api-version", fetch.DefaultVersion, "API version segment")
	cmd.Flags().BoolVar(&fo.dtao, "dtao", false, "Use the dTAO base URL")
	cmd.Flags().IntVar(&fo.repeat, "repeat", 1, "Number of times to issue the call")
	return cmd
}

// parseParams turns key=value pairs into query parameters.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", pair)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			params[key] = n
		} else {
			params[key] = value
		}
	}
	return params, nil
}

func printOutcome(w io.Writer, out fetch.Outcome) {
	var source string
	switch out.Source {
	case fetch.SourceCache:
		source = color.CyanString("cache")
	case fetch.SourceFailed:
		source = color.RedString("failed")
	default:
		source = color.GreenString("upstream")
	}

	fmt.Fprintf(w, "%s %s (%s, %s)\n", source, out.Key, out.TTLClass, out.Duration.Round(time.Millisecond))
	if out.Failure != nil {
		fmt.Fprintf(w, "  %s\n", color.YellowString(out.Failure.Error()))
	}
	fmt.Fprintf(w, "  request_id %s\n", out.RequestID)
}
