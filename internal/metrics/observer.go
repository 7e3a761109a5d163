package metrics

import (
	"context"

	"github.com/sentient-soup/reelname/internal/events"
)

type jobKey struct {
	batch string
	job   int64
}

// Observe feeds bus events into m until ctx is done.
func (m *Metrics) Observe(ctx context.Context, bus *events.Bus) error {
	ch := bus.SubscribeAll(256)
	defer bus.Unsubscribe(ch)

	// last byte count seen per job; counts are cumulative per update
	seen := make(map[jobKey]int64)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			m.record(ev, seen)
		}
	}
}

func (m *Metrics) record(ev events.Event, seen map[jobKey]int64) {
	switch e := ev.(type) {
	case *events.ScanCompleted:
		m.GroupsScanned.Add(float64(e.GroupsAdded))
		m.JobsScanned.Add(float64(e.JobsAdded))
	case *events.GroupMatched:
		m.MatchOutcomes.WithLabelValues("matched").Inc()
	case *events.GroupAmbiguous:
		m.MatchOutcomes.WithLabelValues("ambiguous").Inc()
	case *events.TransferProgressed:
		key := jobKey{e.BatchID, e.JobID}
		last, started := seen[key]
		if !started {
			m.TransfersActive.Inc()
		}
		if e.BytesTransferred > last {
			m.TransferBytes.Add(float64(e.BytesTransferred - last))
			last = e.BytesTransferred
		}
		if e.Status == "transferring" {
			seen[key] = last
			return
		}
		delete(seen, key)
		m.TransfersActive.Dec()
		m.TransferOutcomes.WithLabelValues(e.Status).Inc()
	}
}
