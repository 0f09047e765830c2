// main is the entry point for the farmsight CLI.
package main

import (
	"fmt"
	"os"

	"github.com/farmsight/farmsight/cmd"
	"github.com/farmsight/farmsight/internal/store"
)

func main() {
	cmd.SetStoreManager(store.Manager)

	err := cmd.Execute()

	// Always close stores and flush profiles, even on command failure.
	store.CloseStores()
	if profErr := cmd.StopProfiling(); profErr != nil {
		fmt.Fprintln(os.Stderr, "Warning: failed to stop profiling:", profErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
