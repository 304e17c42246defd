package dispatch

import (
	"fmt"
	"strings"
)

// Kind selects how a Dispatcher schedules calls.
type Kind int

const (
	// KindSequential issues one call at a time in input order.
	KindSequential Kind = iota
	// KindBatched walks the input in chunks of Limit, still one call at a time.
	KindBatched
	// KindParallel runs calls on a pool of Limit workers.
	KindParallel
	// KindChunkedParallel runs chunks of Limit one after another, with every
	// call inside a chunk in flight at once.
	KindChunkedParallel
)

var kindNames = map[Kind]string{
	KindSequential:      "sequential",
	KindBatched:         "batched",
	KindParallel:        "parallel",
	KindChunkedParallel: "chunked-parallel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Mode is a scheduling strategy plus its size parameter.
// Limit is the batch size for batched kinds and the worker count for KindParallel.
type Mode struct {
	Kind  Kind
	Limit int
}

// Sequential returns the serial baseline mode.
func Sequential() Mode {
	return Mode{Kind: KindSequential, Limit: 1}
}

// Batched partitions the input into chunks of batchSize without adding concurrency.
func Batched(batchSize int) Mode {
	return Mode{Kind: KindBatched, Limit: batchSize}
}

// Parallel bounds the number of in-flight calls to maxConcurrency.
func Parallel(maxConcurrency int) Mode {
	return Mode{Kind: KindParallel, Limit: maxConcurrency}
}

// ChunkedParallel runs each chunk of batchSize queries concurrently.
func ChunkedParallel(batchSize int) Mode {
	return Mode{Kind: KindChunkedParallel, Limit: batchSize}
}

// ParseMode maps a mode name to a Mode. limit is ignored for sequential.
func ParseMode(name string, limit int) (Mode, error) {
	var m Mode
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequential", "serial":
		m = Sequential()
	case "batched", "batch":
		m = Batched(limit)
	case "parallel":
		m = Parallel(limit)
	case "chunked-parallel", "chunked":
		m = ChunkedParallel(limit)
	default:
		return Mode{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidMode, name)
	}
	return m, m.Validate()
}

// Validate reports whether the mode can be dispatched.
func (m Mode) Validate() error {
	if _, ok := kindNames[m.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidMode, int(m.Kind))
	}
	if m.Kind != KindSequential && m.Limit < 1 {
		return fmt.Errorf("%w: %s limit must be at least 1, got %d", ErrInvalidMode, m.Kind, m.Limit)
	}
	return nil
}

// MaxInFlight is the largest number of calls the mode keeps in flight.
func (m Mode) MaxInFlight() int {
	switch m.Kind {
	case KindParallel, KindChunkedParallel:
		return m.Limit
	default:
		return 1
	}
}

func (m Mode) String() string {
	if m.Kind == KindSequential {
		return m.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", m.Kind, m.Limit)
}
