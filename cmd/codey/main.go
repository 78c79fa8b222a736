// Command codey is a terminal coding assistant.
//
// Usage:
//
//	GEMINI_API_KEY=gk-...    codey [flags]
//	ANTHROPIC_API_KEY=sk-... codey --provider anthropic
//	codey sessions
//	codey export [session] --format md|html|json|yaml [-o file]
//	codey config
//
// Settings are read from ~/.codey/config.toml; a .env file in the working
// directory is loaded into the environment first.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is the common case.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := environment{
		anthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		geminiKey:    os.Getenv("GEMINI_API_KEY"),
	}
	if err := newRootCmd(env).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "codey: %v\n", err)
		os.Exit(1)
	}
}
