package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/iobroker-community/docrag/internal/docrag"
)

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
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

	sample, err := svc.SampleStats(context.Background(), 100)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("total_documents: %d\n", sample.TotalDocuments)
	fmt.Printf("sample_types: %v\n", sample.Types)
	fmt.Printf("sample_languages: %v\n", sample.Languages)
	fmt.Printf("sample_adapters: %v\n", sample.Adapters)

	if stats, err := docrag.LoadRunStats(cfg.StatsPath); err == nil {
		fmt.Printf("last_run: %d files, %d chunks, %.1fs\n",
			stats.FilesProcessed, stats.ChunksCreated, stats.ElapsedSeconds)
	}
	return 0
}
