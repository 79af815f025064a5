package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voyora/zara/internal/metrics"
)

var (
	chatQueryType string
	chatTopK      int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive helpdesk session in the terminal",
	Long: `
Start an interactive session. Each question is answered from the knowledge
base the same way the HTTP API answers it. Commands inside the session:
help, clear, exit.

Examples:
  zara chat
  zara chat --query-type pricing
`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatQueryType, "query-type", "general", "Query type applied to every question in the session")
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "Number of documents to retrieve per question")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[zara] ", log.LstdFlags)

	if err := metrics.Init(cfg.MetricsDBPath); err == nil {
		defer func() { _ = metrics.Close() }()
	}

	fmt.Println("Zara travel helpdesk. Ask about destinations, hotels or bookings; type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\nyou> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		switch question {
		case "exit", "quit":
			fmt.Println("\nGoodbye!")
			return scanner.Err()
		case "help":
			fmt.Println("Ask any travel question. Commands: help, clear, exit")
			continue
		case "clear":
			fmt.Print("\033[H\033[2J")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		ans, err := answerOnce(ctx, cfg, logger, question, chatQueryType, chatTopK)
		cancel()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		metrics.RecordAnswer(ans.Method)

		fmt.Printf("\nzara> %s\n", ans.Answer)
		if len(ans.Sources) > 0 {
			names := make([]string, 0, len(ans.Sources))
			for _, src := range ans.Sources {
				names = append(names, src.Filename)
			}
			fmt.Printf("      (sources: %s)\n", strings.Join(names, ", "))
		}
	}

	fmt.Println("\nGoodbye!")
	return scanner.Err()
}
