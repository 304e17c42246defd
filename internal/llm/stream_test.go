package llm

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// trackingBody records Close calls on an in-memory body.
type trackingBody struct {
	io.Reader
	closed int
}

func (b *trackingBody) Close() error {
	b.closed++
	return nil
}

func ndjson(lines ...string) *trackingBody {
	return &trackingBody{Reader: strings.NewReader(strings.Join(lines, "\n") + "\n")}
}

func TestCollect_ClosesStream(t *testing.T) {
	body := ndjson(
		`{"message":{"content":"a"},"done":false}`,
		`{"message":{"content":"b"},"done":true}`,
		`{"message":{"content":"ignored"},"done":false}`,
	)
	stream := newLineStream(body, decodeOllamaLine)

	var got []string
	if err := Collect(stream, func(f string) error {
		got = append(got, f)
		return nil
	}); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if strings.Join(got, "") != "ab" {
		t.Errorf("Collect() fragments = %v, want [a b]", got)
	}
	if body.closed != 1 {
		t.Errorf("body closed %d times, want 1", body.closed)
	}
}

func TestCollect_CallbackErrorStopsConsumption(t *testing.T) {
	body := ndjson(
		`{"message":{"content":"a"},"done":false}`,
		`{"message":{"content":"b"},"done":false}`,
	)
	stream := newLineStream(body, decodeOllamaLine)
	stop := errors.New("stop")

	calls := 0
	err := Collect(stream, func(string) error {
		calls++
		return stop
	})

	if !errors.Is(err, stop) {
		t.Errorf("Collect() error = %v, want %v", err, stop)
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
	if body.closed != 1 {
		t.Errorf("body closed %d times, want 1", body.closed)
	}
}

func TestLineStream_CloseEarly(t *testing.T) {
	body := ndjson(
		`{"message":{"content":"a"},"done":false}`,
		`{"message":{"content":"b"},"done":false}`,
	)
	stream := newLineStream(body, decodeOllamaLine)

	first, err := stream.Next()
	if err != nil || first != "a" {
		t.Fatalf("Next() = %q, %v", first, err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if body.closed != 1 {
		t.Errorf("body closed %d times, want 1", body.closed)
	}
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() after Close = %v, want io.EOF", err)
	}
}

func TestLineStream_EndsWithoutDone(t *testing.T) {
	tests := []struct {
		name   string
		body   *trackingBody
		decode lineDecoder
		want   string
	}{
		{
			name:   "ndjson without done",
			body:   ndjson(`{"message":{"content":"The capital of"},"done":false}`),
			decode: decodeOllamaLine,
			want:   "The capital of",
		},
		{
			name:   "sse without done marker",
			body:   ndjson(`data: {"choices":[{"delta":{"content":"The capital of"}}]}`, ``),
			decode: decodeSSELine,
			want:   "The capital of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got strings.Builder
			err := Collect(newLineStream(tt.body, tt.decode), func(f string) error {
				got.WriteString(f)
				return nil
			})

			if !errors.Is(err, ErrBadResponse) {
				t.Errorf("Collect() error = %v, want ErrBadResponse", err)
			}
			if got.String() != tt.want {
				t.Errorf("Collect() delivered %q, want %q", got.String(), tt.want)
			}
			if tt.body.closed != 1 {
				t.Errorf("body closed %d times, want 1", tt.body.closed)
			}
		})
	}
}

func TestLineStream_EmptyBody(t *testing.T) {
	stream := newLineStream(&trackingBody{Reader: strings.NewReader("")}, decodeOllamaLine)
	if _, err := stream.Next(); !errors.Is(err, ErrBadResponse) {
		t.Errorf("Next() on empty body = %v, want ErrBadResponse", err)
	}
}

func TestLineStream_CompletedStreamEndsWithEOF(t *testing.T) {
	stream := newLineStream(ndjson(`{"message":{"content":"done"},"done":true}`), decodeOllamaLine)

	if f, err := stream.Next(); err != nil || f != "done" {
		t.Fatalf("Next() = %q, %v", f, err)
	}
	for i := 0; i < 2; i++ {
		if _, err := stream.Next(); !errors.Is(err, io.EOF) {
			t.Errorf("Next() after done = %v, want io.EOF", err)
		}
	}
}

func TestPrompt_Request(t *testing.T) {
	p := Prompt{Model: "llama3.2:3b", System: "be plain"}

	req := p.Request("What is 2+2?")
	if req.Model != "llama3.2:3b" || req.Stream {
		t.Errorf("Request() = %+v", req)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("Request() messages = %d, want 2", len(req.Messages))
	}
	if req.Messages[0] != (Message{Role: RoleSystem, Content: "be plain"}) {
		t.Errorf("Request() system message = %+v", req.Messages[0])
	}
	if req.Messages[1] != (Message{Role: RoleUser, Content: "What is 2+2?"}) {
		t.Errorf("Request() user message = %+v", req.Messages[1])
	}

	if !p.StreamRequest("x").Stream {
		t.Error("StreamRequest() stream = false, want true")
	}

	bare := Prompt{Model: "m"}.Request("hi")
	if len(bare.Messages) != 1 || bare.Messages[0].Role != RoleUser {
		t.Errorf("Request() without system prompt = %+v", bare.Messages)
	}
}
