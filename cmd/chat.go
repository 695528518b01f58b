package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/docent-ai/docent/internal/agent"
	"github.com/docent-ai/docent/internal/app"
	"github.com/docent-ai/docent/internal/config"
	"github.com/docent-ai/docent/internal/log"
	"github.com/docent-ai/docent/internal/prompt"
	"github.com/docent-ai/docent/internal/session"
	"github.com/docent-ai/docent/internal/stream"
)

// runChat starts the interactive terminal conversation.
func runChat(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := application.Close(); closeErr != nil {
			logger.Warn("close error", "error", closeErr)
		}
	}()

	sess := application.NewSession(session.ClientTerminal)
	printBanner(cfg)

	sink := stream.NewWriterSink(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit", "/quit":
			fmt.Println("Bye.")
			return nil
		}

		_, err := application.Agent.Respond(ctx, sess, agent.Turn{Text: input}, sink)
		fmt.Println()
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		fmt.Println()
	}

	return scanner.Err()
}

// printBanner shows the model in use and the conversation starters.
func printBanner(cfg *config.Config) {
	fmt.Printf("Docent (%s)\n", cfg.FullModelName())
	fmt.Println("Ask about the documentation. /exit to quit.")
	fmt.Println()
	fmt.Println("Try one of these:")
	for _, starter := range prompt.Starters() {
		fmt.Printf("  - %s\n", starter.Message)
	}
	fmt.Println()
}
