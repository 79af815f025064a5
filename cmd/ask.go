package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyora/zara/internal/kbsearch"
	"github.com/voyora/zara/internal/metrics"
	"github.com/voyora/zara/internal/rerank"
	"github.com/voyora/zara/internal/types"
)

var (
	askQuestion  string
	askQueryType string
	askTopK      int
	askJSON      bool
	askTimeout   int
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question from the knowledge base",
	Long: `
Answer one question and exit. The question is matched against the OpenSearch
knowledge base; the best matches are used as context for the generated answer.

Examples:
  zara ask -q "What is the best season to visit the Maldives?"
  zara ask -q "How do I change a booking?" --query-type platform_help
  zara ask -q "Hotel rates in Zanzibar" --json
`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Question to answer (required)")
	askCmd.Flags().StringVar(&askQueryType, "query-type", "general", "Query type: hotel_info|pricing|platform_help|destination|comparison|general")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "Number of documents to retrieve (defaults to configuration)")
	askCmd.Flags().BoolVarP(&askJSON, "json", "j", false, "Output the answer as JSON")
	askCmd.Flags().IntVar(&askTimeout, "timeout", 30, "Request timeout in seconds")

	_ = askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[zara] ", log.LstdFlags)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(askTimeout)*time.Second)
	defer cancel()

	if err := metrics.Init(cfg.MetricsDBPath); err == nil {
		defer func() { _ = metrics.Close() }()
	}

	ans, err := answerOnce(ctx, cfg, logger, askQuestion, askQueryType, askTopK)
	if err != nil {
		return err
	}
	metrics.RecordAnswer(ans.Method)

	if askJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ans)
	}

	printAnswer(ans)
	return nil
}

// answerOnce runs the retrieval and generation pipeline for one question.
func answerOnce(ctx context.Context, cfg *types.Config, logger *log.Logger, question, queryType string, topK int) (*types.RagAnswer, error) {
	searchClient, err := buildSearchClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	answerService := buildAnswerService(cfg, logger)
	rerankService := rerank.New(cfg, logger)

	if topK <= 0 {
		topK = cfg.TopK
	}

	var results []types.SearchResult
	if searchClient != nil {
		results, err = searchClient.Search(ctx, &kbsearch.Query{Text: question, Size: topK})
		if err != nil {
			logger.Printf("knowledge base search failed: %v", err)
			results = nil
		}
	}

	if rerankService.Enabled() && len(results) > 1 {
		reranked, err := rerankService.Rerank(ctx, question, results, topK)
		if err != nil {
			logger.Printf("rerank failed, keeping BM25 order: %v", err)
		} else {
			results = reranked
		}
	}

	return answerService.GenerateResponse(ctx, question, results, queryType, 0), nil
}

func printAnswer(ans *types.RagAnswer) {
	fmt.Println(ans.Answer)
	if len(ans.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range ans.Sources {
			fmt.Printf("  - %s (score %.2f)\n", src.Filename, src.Score)
		}
	}
	fmt.Printf("\n[method: %s]\n", ans.Method)
}
