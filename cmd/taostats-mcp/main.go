// Command taostats-mcp serves TaoStats blockchain data as MCP tools.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "taostats-mcp: %v\n", err)
		os.Exit(1)
	}
}
