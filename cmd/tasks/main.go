package main

import (
	"context"
	"os"

	"tasklist/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), nil, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
