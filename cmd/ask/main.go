package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vhsingh/jobs-qa/internal/bootstrap"
	"github.com/vhsingh/jobs-qa/internal/config"
	"github.com/vhsingh/jobs-qa/internal/observability/logging"
)

// ask is an interactive REPL over the corpus: one question per line, the
// answer and its cost printed after each, plus a session running total.
func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("ask", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	validDocs, err := app.Repo.ListDocNames(ctx)
	if err != nil {
		log.Fatalf("list documents: %v", err)
	}
	if len(validDocs) == 0 {
		log.Fatalf("corpus is empty; run a refresh first")
	}

	fmt.Printf("Loaded %d job postings. Ask a question, or 'exit' to quit.\n", len(validDocs))

	sessionCost := 0.0
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Q: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		answer, err := app.AnswerUC.AnswerQuestion(ctx, question, cfg.TaskContext, validDocs)
		if answer != nil {
			sessionCost += answer.TotalCost
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		fmt.Printf("A: %s\n", answer.FinalAnswer)
		fmt.Printf("   (cost $%.6f, session total $%.6f)\n", answer.TotalCost, sessionCost)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("read input: %v", err)
	}
	fmt.Printf("Session spend: $%.6f\n", sessionCost)
}
