// Command bench times a list of chat queries against a local LLM server under
// several dispatch modes and prints the replies.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/amit-batra/playing-with-llama/internal/config"
	"github.com/amit-batra/playing-with-llama/internal/dispatch"
	"github.com/amit-batra/playing-with-llama/internal/llm"
	"github.com/amit-batra/playing-with-llama/internal/service"
	"github.com/amit-batra/playing-with-llama/internal/storage"
	"github.com/amit-batra/playing-with-llama/internal/textfmt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Logs go to stderr so stdout carries only the report.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	benchOpts, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if errors.Is(err, errHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, benchOpts, os.Stdout); err != nil {
		stop()
		log.Fatalf("bench failed: %v", err)
	}
}

// run executes the selected benchmark and writes the report to out.
func run(ctx context.Context, opts *options, out io.Writer) error {
	client, err := llm.NewClient(opts.backend, opts.baseURL, opts.apiKey)
	if err != nil {
		return err
	}
	prompt := llm.Prompt{Model: opts.model, System: opts.system}

	switch {
	case opts.single:
		return runSingle(ctx, service.NewChatService(client, prompt), opts, out)
	case opts.stream:
		return runStream(ctx, service.NewChatService(client, prompt), opts.queries, out)
	}

	var store storage.RunStore
	if opts.record && opts.runsDBPath != config.RunsDBDisabled {
		db, err := storage.New(opts.runsDBPath)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer func() {
			_ = db.Close()
		}()
		if err := storage.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate run history: %w", err)
		}
		store = storage.NewRunRepo(db)
	}

	dispatcher := dispatch.New(client,
		dispatch.WithPrompt(prompt),
		dispatch.WithCallTimeout(opts.callTimeout),
	)
	bench := service.NewBenchmarkService(dispatcher, store, service.BenchmarkConfig{
		Model:          opts.model,
		BatchSize:      opts.batchSize,
		MaxConcurrency: opts.maxWorkers,
	})

	reports, err := bench.Compare(ctx, opts.queries, opts.modes)
	if err != nil {
		return err
	}
	return printComparison(out, reports, opts.plain)
}

// runSingle asks each query in turn and prints the whole reply.
func runSingle(ctx context.Context, chat service.ChatService, opts *options, out io.Writer) error {
	for _, query := range opts.queries {
		resp, err := chat.ProcessChat(ctx, service.ChatRequest{Message: query})
		if err != nil {
			return err
		}
		reply := resp.Reply
		if opts.plain {
			reply = textfmt.PlainText(reply)
		}
		if _, err := fmt.Fprintf(out, "Query: %s\nResponse: %s\n\n", query, reply); err != nil {
			return err
		}
	}
	return nil
}

// runStream asks each query in turn and prints fragments as they arrive.
func runStream(ctx context.Context, chat service.ChatService, queries []string, out io.Writer) error {
	for _, query := range queries {
		if _, err := fmt.Fprintf(out, "Query: %s\nResponse: ", query); err != nil {
			return err
		}
		err := chat.StreamChat(ctx, service.ChatRequest{Message: query}, func(fragment string) error {
			_, err := io.WriteString(out, fragment)
			return err
		})
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\n\n"); err != nil {
			return err
		}
	}
	return nil
}

// printComparison prints one timing line per report, then the query and
// response pairs of the first report.
func printComparison(out io.Writer, reports []service.RunReport, plain bool) error {
	if len(reports) == 0 {
		return nil
	}

	var b strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&b, "%s processing time: %.2f seconds\n", modeLabel(r), r.Duration.Seconds())
	}
	b.WriteString("\n")

	first := reports[0]
	for i, query := range first.Queries {
		reply := first.Responses[i]
		if plain {
			reply = textfmt.PlainText(reply)
		}
		fmt.Fprintf(&b, "Query: %s\nResponse: %s\n\n", query, reply)
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// modeLabel capitalizes the mode name, e.g. "Parallel".
func modeLabel(r service.RunReport) string {
	if r.Mode == "" {
		return "Unknown"
	}
	return strings.ToUpper(r.Mode[:1]) + r.Mode[1:]
}
