package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/iobroker-community/docrag/internal/docrag"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	reset := fs.Bool("reset", false, "delete the existing collection first")
	progress := fs.Bool("progress", docrag.DefaultProgressEnabled(), "show progress")
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

	reporter := docrag.NewIngestProgress(*progress)
	stats, err := svc.Ingest(context.Background(), *reset, reporter)
	if err != nil {
		var warn *docrag.IngestWarning
		if errors.As(err, &warn) {
			fmt.Fprintln(os.Stderr, warn.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	fmt.Printf("files_processed: %d\n", stats.FilesProcessed)
	fmt.Printf("chunks_created: %d\n", stats.ChunksCreated)
	fmt.Printf("total_in_collection: %d\n", stats.TotalInCollection)
	fmt.Printf("elapsed_seconds: %.1f\n", stats.ElapsedSeconds)
	return 0
}
