// Command graphctl runs graph operations against the configured stores.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(containerFromConfig).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
