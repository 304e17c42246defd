package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/amit-batra/playing-with-llama/internal/config"
	"github.com/amit-batra/playing-with-llama/internal/dispatch"
)

// defaultQueries are asked when no query is given on the command line or in a file.
var defaultQueries = []string{
	"What is 2+2?",
	"What is the capital of France?",
	"Who wrote Romeo and Juliet?",
	"What is the speed of light?",
	"What is the largest planet?",
}

var errHelp = pflag.ErrHelp

// options is the resolved command line.
type options struct {
	backend     string
	baseURL     string
	apiKey      string
	model       string
	system      string
	callTimeout time.Duration

	modes      []dispatch.Mode
	batchSize  int
	maxWorkers int

	single bool
	stream bool
	plain  bool
	record bool

	runsDBPath string
	queries    []string
}

// parseFlags reads args on top of the environment defaults in cfg.
func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (*options, error) {
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "\nTime chat queries against a local LLM server under different dispatch modes.\n\n %s [flags] [query ...]\n\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	compare := fs.String("compare", "sequential,parallel", "Comma-separated modes to compare: sequential, batched, parallel, chunked-parallel")
	batchSize := fs.Int("batch-size", cfg.BatchSize, "Chunk size for batched modes")
	maxWorkers := fs.Int("max-workers", cfg.MaxConcurrency, "Concurrent calls for parallel mode")
	model := fs.String("model", cfg.LLMModelName, "Model name")
	backend := fs.String("backend", cfg.LLMBackend, "LLM backend: ollama or openai")
	baseURL := fs.String("base-url", cfg.LLMBaseURL, "LLM server base URL")
	system := fs.String("system", cfg.SystemPrompt, "System prompt sent before every query")
	callTimeout := fs.Duration("timeout", cfg.CallTimeout, "Deadline for each call, 0 for none")
	queriesFile := fs.String("queries-file", "", "Read queries from a file, one per line")
	single := fs.Bool("single", false, "Ask each query in turn and print its response")
	stream := fs.Bool("stream", false, "Ask each query in turn and print the response as it streams")
	plain := fs.Bool("plain", false, "Strip Markdown from responses")
	record := fs.Bool("record", false, "Record comparison runs in the run history database")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *single && *stream {
		return nil, errors.New("--single and --stream are mutually exclusive")
	}
	if *batchSize < 1 {
		return nil, fmt.Errorf("--batch-size must be at least 1, got %d", *batchSize)
	}
	if *maxWorkers < 1 {
		return nil, fmt.Errorf("--max-workers must be at least 1, got %d", *maxWorkers)
	}
	if *callTimeout < 0 {
		return nil, fmt.Errorf("--timeout must not be negative, got %s", *callTimeout)
	}

	opts := &options{
		backend:     *backend,
		baseURL:     *baseURL,
		apiKey:      cfg.LLMAPIKey,
		model:       *model,
		system:      *system,
		callTimeout: *callTimeout,
		batchSize:   *batchSize,
		maxWorkers:  *maxWorkers,
		single:      *single,
		stream:      *stream,
		plain:       *plain,
		record:      *record,
		runsDBPath:  cfg.RunsDBPath,
	}

	if !*single && !*stream {
		modes, err := parseModes(*compare, *batchSize, *maxWorkers)
		if err != nil {
			return nil, err
		}
		opts.modes = modes
	}

	switch {
	case fs.NArg() > 0:
		opts.queries = fs.Args()
	case *queriesFile != "":
		f, err := os.Open(*queriesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open queries file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		queries, err := readQueries(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read queries file: %w", err)
		}
		if len(queries) == 0 {
			return nil, fmt.Errorf("queries file %s contains no queries", *queriesFile)
		}
		opts.queries = queries
	default:
		opts.queries = defaultQueries
	}

	return opts, nil
}

// parseModes maps a comma-separated list to modes. Parallel takes maxWorkers,
// the batched kinds take batchSize.
func parseModes(list string, batchSize, maxWorkers int) ([]dispatch.Mode, error) {
	var modes []dispatch.Mode
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		limit := batchSize
		if probe, err := dispatch.ParseMode(name, 1); err == nil && probe.Kind == dispatch.KindParallel {
			limit = maxWorkers
		}

		mode, err := dispatch.ParseMode(name, limit)
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("%w: no modes to compare", dispatch.ErrInvalidMode)
	}
	return modes, nil
}

// readQueries returns the non-blank lines of r, trimmed. Lines starting with # are comments.
func readQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}
