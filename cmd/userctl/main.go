// Command userctl manages user accounts directly in the configured storage.
package main

import (
	"context"
	"os"

	"github.com/sethvargo/go-envconfig"
)

func main() {
	c := newCLI(envconfig.OsLookuper())
	if err := c.execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
