package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iobroker-community/docrag/internal/docrag"
)

func runQuery(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	question := fs.String("q", "", "query text")
	topK := fs.Int("top", 5, "max results")
	language := fs.String("lang", "", "filter by language (en/de)")
	docType := fs.String("type", "", "filter by chunk type (doc/code/api/config)")
	mode := fs.String("mode", "vector", "query mode: vector|text|mixed")
	includePrompt := fs.Bool("prompt", false, "include the LLM prompt in the output")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*question) == "" {
		fmt.Fprintln(os.Stderr, "query text is required")
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

	ctx := context.Background()
	switch strings.ToLower(*mode) {
	case "vector":
		resp, err := svc.Query(ctx, docrag.QueryRequest{
			Question:      *question,
			TopK:          *topK,
			Language:      *language,
			DocType:       *docType,
			IncludePrompt: *includePrompt,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *jsonOut {
			return printJSON(resp)
		}
		printResponse(resp)
	case "text":
		hits, err := svc.SearchKeyword(*question, *topK)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *jsonOut {
			return printJSON(hits)
		}
		printTextHits(hits)
	case "mixed":
		hits, err := svc.SearchMixed(ctx, *question, *topK)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *jsonOut {
			return printJSON(hits)
		}
		printMixedHits(hits)
	default:
		fmt.Fprintf(os.Stderr, "unknown query mode: %s\n", *mode)
		return 1
	}
	return 0
}

func printResponse(resp docrag.QueryResponse) {
	fmt.Println(resp.Context)
	if len(resp.Sources) > 0 {
		fmt.Println()
		for _, src := range resp.Sources {
			line := fmt.Sprintf("%.3f\t%s\t%s", src.Relevance, src.Type, src.File)
			if src.Section != "" {
				line += " § " + src.Section
			}
			fmt.Println(line)
		}
	}
	if resp.Prompt != "" {
		fmt.Println()
		fmt.Println(resp.Prompt)
	}
	fmt.Printf("\n%d results in %.1fms\n", resp.TotalResults, resp.QueryTimeMs)
}

func printTextHits(hits []docrag.TextHit) {
	if len(hits) == 0 {
		fmt.Println("no results")
		return
	}
	for _, hit := range hits {
		section := hit.Section
		if section == "" {
			section = "-"
		}
		fmt.Printf("%.2f\t%s\t%s\t%s\n", hit.Score, hit.Type, hit.Source, section)
	}
}

func printMixedHits(hits []docrag.MixedHit) {
	if len(hits) == 0 {
		fmt.Println("no results")
		return
	}
	for _, hit := range hits {
		section := hit.Section
		if section == "" {
			section = "-"
		}
		fmt.Printf("%.2f\t%s\t%s\t%s\t%s\n", hit.Score, hit.Origin, hit.Type, hit.Source, section)
	}
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
