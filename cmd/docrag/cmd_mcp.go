package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/iobroker-community/docrag/internal/docrag"
	"github.com/iobroker-community/docrag/internal/mcpserver"
)

func runMCP(args []string) int {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := docrag.LoadConfigOptional(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	svc, err := docrag.NewService(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer svc.Close()

	if err := mcpserver.New(svc, version).Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
