package generation

import (
	"fmt"
	"io"
	"time"
)

// CallEvent records metadata about a single generator invocation.
type CallEvent struct {
	Model     string
	LatencyMs int64
	Blocks    int
	Success   bool
	Err       string
}

// Observer receives events about generator calls.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to an io.Writer.
type LogObserver struct {
	w io.Writer
}

func NewLogObserver(w io.Writer) *LogObserver {
	return &LogObserver{w: w}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	ts := time.Now().UTC().Format(time.RFC3339)
	status := "ok"
	if !event.Success {
		status = "err:" + event.Err
	}
	fmt.Fprintf(o.w, "[%s] llm_call model=%s latency_ms=%d blocks=%d status=%s\n",
		ts, event.Model, event.LatencyMs, event.Blocks, status)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
