package main

import (
	"context"
	"fmt"
	"os"

	"go-chi-calculator/internal/cli"
)

func main() {
	ctx := context.Background()

	root := cli.NewRootCmd(cli.Options{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
