package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyora/zara/internal/seeder"
)

var (
	seedDirectory string
	seedTimeout   int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Index knowledge base documents into OpenSearch",
	Long: `
Walk a directory of markdown travel documents and index them into the
configured OpenSearch index. Documents may carry YAML front matter with
title, category, destination and tags fields.

Examples:
  zara seed --dir ./knowledge-base
  zara seed --dir ./docs --timeout 300
`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedDirectory, "dir", "d", "./knowledge-base", "Directory of markdown documents")
	seedCmd.Flags().IntVar(&seedTimeout, "timeout", 300, "Seeding timeout in seconds")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[zara] ", log.LstdFlags)

	searchClient, err := buildSearchClient(cfg, logger)
	if err != nil {
		return err
	}
	if searchClient == nil {
		return fmt.Errorf("OPENSEARCH_ENDPOINT must be set to seed the knowledge base")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(seedTimeout)*time.Second)
	defer cancel()

	result, err := seeder.New(searchClient, logger).Seed(ctx, seedDirectory)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	fmt.Printf("Indexed %d documents (%d skipped) from %s into %s\n",
		result.Indexed, result.Skipped, seedDirectory, cfg.OpenSearchIndex)
	if len(result.Errors) > 0 {
		fmt.Printf("%d documents had errors; see the log for details\n", len(result.Errors))
	}
	return nil
}
