// Package dispatch issues a list of chat queries against one backend under a
// chosen concurrency strategy and returns the replies in input order.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/amit-batra/playing-with-llama/internal/contextutil"
	"github.com/amit-batra/playing-with-llama/internal/llm"
)

// ChatService is the single blocking call a Dispatcher needs from a backend.
// Implementations must be safe for concurrent use.
type ChatService interface {
	Complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Result holds the replies of one dispatch. Responses[i] answers queries[i].
type Result struct {
	Responses []string
	// Duration is wall-clock time from the first submission to the last completion.
	Duration time.Duration
}

// Dispatcher runs independent chat calls against a shared ChatService.
// It keeps no state between Dispatch calls.
type Dispatcher struct {
	svc         ChatService
	prompt      llm.Prompt
	callTimeout time.Duration
	observer    Observer
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPrompt sets the model and system prompt used to build every request.
func WithPrompt(p llm.Prompt) Option {
	return func(d *Dispatcher) {
		d.prompt = p
	}
}

// WithCallTimeout bounds every individual call. Zero means no deadline.
func WithCallTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.callTimeout = timeout
	}
}

// WithObserver registers an Observer for call and dispatch timings.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher that owns svc for its lifetime.
func New(svc ChatService, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		svc:      svc,
		prompt:   llm.DefaultPrompt(),
		observer: NopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends every query to the ChatService under mode and returns the
// replies in input order.
//
// The first failing call aborts the dispatch with a *ServiceError naming the
// query's index; no partial result is returned. Serial kinds issue no further
// calls after a failure. Concurrent kinds cancel in-flight siblings and stop
// admitting new calls. Cancelling ctx has the same effect.
func (d *Dispatcher) Dispatch(ctx context.Context, queries []string, mode Mode) (Result, error) {
	if err := mode.Validate(); err != nil {
		return Result{}, err
	}

	logger := contextutil.LoggerFromContextOr(ctx, d.logger).With("mode", mode.String())
	responses := make([]string, len(queries))

	start := time.Now()
	var err error
	switch mode.Kind {
	case KindSequential:
		err = d.runSerial(ctx, mode, queries, 0, responses)
	case KindBatched:
		err = d.forEachChunk(queries, mode.Limit, func(offset int, chunk []string) error {
			logger.DebugContext(ctx, "processing batch", "offset", offset, "size", len(chunk))
			return d.runSerial(ctx, mode, chunk, offset, responses)
		})
	case KindParallel:
		err = d.runBounded(ctx, mode, queries, 0, responses, mode.Limit)
	case KindChunkedParallel:
		err = d.forEachChunk(queries, mode.Limit, func(offset int, chunk []string) error {
			logger.DebugContext(ctx, "processing batch", "offset", offset, "size", len(chunk))
			return d.runBounded(ctx, mode, chunk, offset, responses, len(chunk))
		})
	}
	elapsed := time.Since(start)

	d.observer.DispatchFinished(mode, len(queries), elapsed, err)

	if err != nil {
		logger.ErrorContext(ctx, "dispatch failed", "queries", len(queries), "elapsed", elapsed, "error", err)
		return Result{}, err
	}

	logger.InfoContext(ctx, "dispatch completed", "queries", len(queries), "elapsed", elapsed)
	return Result{
		Responses: responses,
		Duration:  elapsed,
	}, nil
}

// forEachChunk calls fn on consecutive chunks of size, stopping at the first error.
func (d *Dispatcher) forEachChunk(queries []string, size int, fn func(offset int, chunk []string) error) error {
	for offset := 0; offset < len(queries); offset += size {
		end := min(offset+size, len(queries))
		if err := fn(offset, queries[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

// runSerial issues calls one at a time. Slot offset+i receives the reply to queries[i].
func (d *Dispatcher) runSerial(ctx context.Context, mode Mode, queries []string, offset int, responses []string) error {
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return &ServiceError{Index: offset + i, Query: query, Err: err}
		}

		reply, err := d.call(ctx, mode, offset+i, query)
		if err != nil {
			return err
		}
		responses[offset+i] = reply
	}
	return nil
}

// runBounded keeps at most limit calls in flight. Each worker writes only its own slot.
func (d *Dispatcher) runBounded(ctx context.Context, mode Mode, queries []string, offset int, responses []string, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, query := range queries {
		query := query // per-iteration copy; go.mod targets go1.21 loop semantics
		idx := offset + i

		// g.Go blocks while limit calls are in flight, so the check runs
		// right before each admission.
		if err := gctx.Err(); err != nil {
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return &ServiceError{Index: idx, Query: query, Err: err}
		}

		g.Go(func() error {
			reply, err := d.call(gctx, mode, idx, query)
			if err != nil {
				return err
			}
			responses[idx] = reply
			return nil
		})
	}

	return g.Wait()
}

func (d *Dispatcher) call(ctx context.Context, mode Mode, idx int, query string) (string, error) {
	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}

	d.observer.CallStarted(mode)
	start := time.Now()

	resp, err := d.svc.Complete(ctx, d.prompt.Request(query))
	if err == nil && resp == nil {
		err = fmt.Errorf("%w: empty response", llm.ErrBadResponse)
	}

	d.observer.CallFinished(mode, time.Since(start), err)

	if err != nil {
		return "", &ServiceError{Index: idx, Query: query, Err: err}
	}
	return resp.Content, nil
}
