package transfer

import (
	"context"
	"sync"

	"github.com/sentient-soup/reelname/internal/events"
)

// Status is the state carried by a progress update.
type Status string

const (
	StatusTransferring Status = "transferring"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// Progress is one update for one job in a batch. BytesTransferred never
// decreases across the updates of a single job.
type Progress struct {
	BatchID          string  `json:"batch_id"`
	JobID            int64   `json:"job_id"`
	BytesTransferred int64   `json:"bytes_transferred"`
	TotalBytes       int64   `json:"total_bytes"`
	Progress         float64 `json:"progress"`
	Status           Status  `json:"status"`
	Error            string  `json:"error,omitempty"`
	DestinationPath  string  `json:"destination_path,omitempty"`
}

// Terminal reports whether p is the last update for its job.
func (p Progress) Terminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

// Sink receives progress updates. Send is called from transfer goroutines
// and must be safe for concurrent use.
type Sink interface {
	Send(p Progress)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(p Progress)

// Send calls f(p).
func (f SinkFunc) Send(p Progress) { f(p) }

// ChannelSink forwards updates to ch. In-flight updates are dropped when ch
// is full so a slow reader never stalls a copy; terminal updates always block
// until delivered.
type ChannelSink struct {
	ch chan<- Progress
}

// NewChannelSink wraps ch.
func NewChannelSink(ch chan<- Progress) *ChannelSink {
	return &ChannelSink{ch: ch}
}

// Send implements Sink.
func (s *ChannelSink) Send(p Progress) {
	if p.Terminal() {
		s.ch <- p
		return
	}
	select {
	case s.ch <- p:
	default:
	}
}

// BusSink publishes updates as transfer.progressed events.
type BusSink struct {
	bus *events.Bus
}

// NewBusSink publishes onto bus.
func NewBusSink(bus *events.Bus) *BusSink {
	return &BusSink{bus: bus}
}

// Send implements Sink.
func (s *BusSink) Send(p Progress) {
	// terminal updates must land even while the batch context is cancelled
	_ = s.bus.Publish(context.Background(), &events.TransferProgressed{
		BaseEvent:        events.NewBaseEvent(events.EventTransferProgressed, events.EntityJob, p.JobID),
		BatchID:          p.BatchID,
		JobID:            p.JobID,
		BytesTransferred: p.BytesTransferred,
		TotalBytes:       p.TotalBytes,
		Progress:         p.Progress,
		Status:           string(p.Status),
		Error:            p.Error,
		DestinationPath:  p.DestinationPath,
	})
}

// MultiSink fans updates out to every sink in order.
type MultiSink []Sink

// Send implements Sink.
func (m MultiSink) Send(p Progress) {
	for _, s := range m {
		if s != nil {
			s.Send(p)
		}
	}
}

// Recorder keeps every update it receives. Useful for callers that only
// want the final state of each job.
type Recorder struct {
	mu      sync.Mutex
	updates []Progress
}

// Send implements Sink.
func (r *Recorder) Send(p Progress) {
	r.mu.Lock()
	r.updates = append(r.updates, p)
	r.mu.Unlock()
}

// Updates returns a copy of the recorded updates in arrival order.
func (r *Recorder) Updates() []Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Progress(nil), r.updates...)
}

// Final returns the terminal update for each job.
func (r *Recorder) Final() map[int64]Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]Progress)
	for _, p := range r.updates {
		if p.Terminal() {
			out[p.JobID] = p
		}
	}
	return out
}
