package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kirillkom/course-assistant/internal/bootstrap"
	"github.com/kirillkom/course-assistant/internal/config"
	"github.com/kirillkom/course-assistant/internal/core/ports"
	"github.com/kirillkom/course-assistant/internal/observability/logging"
)

const historyLines = 10

func main() {
	cfg := config.Load()
	// stdout belongs to the conversation.
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, cfg.ServiceName+"-cli", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	fmt.Printf("%s - ask about the course. Type 'exit' to leave, /clear to reset, /history to review.\n", cfg.PromptPersona)
	if err := run(ctx, app.Chatbot, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "chat error: %v\n", err)
		os.Exit(1)
	}
}

func isExitWord(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit", "bye", "q":
		return true
	default:
		return false
	}
}

func run(ctx context.Context, chat ports.ChatService, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case isExitWord(line):
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case line == "/clear":
			chat.Clear()
			fmt.Fprintln(out, "History cleared.")
			continue
		case line == "/history":
			turns := chat.History(historyLines)
			if len(turns) == 0 {
				fmt.Fprintln(out, "No turns yet.")
			}
			for _, t := range turns {
				fmt.Fprintf(out, "[%d] You: %s\n    Bot: %s\n", t.Turn, t.UserMessage, t.BotAnswer)
			}
			continue
		}

		reply := chat.Chat(ctx, line)
		fmt.Fprintf(out, "\nAssistant: %s\n", reply.Answer)
		if len(reply.Citations) > 0 {
			fmt.Fprintf(out, "Sources: %s\n", strings.Join(reply.Citations, ", "))
		}
	}
}
