// Package cmd provides the docent CLI commands.
//
// Commands:
//   - chat: interactive terminal conversation with the documentation agent
//   - ingest: rebuild the vector index from the corpus directories
//
// Both commands handle SIGINT/SIGTERM via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/docent-ai/docent/internal/log"
)

// Execute is the entry point for the docent CLI.
func Execute() error {
	// Provider API keys commonly live in a local .env during development.
	// A missing file is fine; the environment may already be populated.
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: logLevel()})

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "chat":
		return runChat(logger)
	case "ingest":
		return runIngest(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func logLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Docent - documentation assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  docent chat        Start an interactive conversation")
	fmt.Println("  docent ingest      Rebuild the vector index from the corpus")
	fmt.Println("  docent --version   Show version information")
	fmt.Println("  docent --help      Show this help")
	fmt.Println()
	fmt.Println("Chat commands (in interactive mode):")
	fmt.Println("  /exit, /quit       Leave the conversation")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPENAI_API_KEY     Required for the openai provider (default)")
	fmt.Println("  GEMINI_API_KEY     Required for the googleai provider")
	fmt.Println("  DOCENT_PROVIDER    Optional: openai, googleai, or ollama")
	fmt.Println("  DATABASE_URL       Optional: overrides the postgres settings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}
