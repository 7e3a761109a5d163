package v1

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentient-soup/reelname/internal/events"
	"github.com/sentient-soup/reelname/internal/library"
)

func TestListEvents(t *testing.T) {
	db, err := library.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := library.NewStore(db)
	eventLog := events.NewEventLog(db)

	g, _ := addShow(t, store, "Dark", 1)
	_, err = eventLog.Append(&events.GroupMatched{
		BaseEvent: events.NewBaseEvent(events.EventGroupMatched, events.EntityGroup, g.ID),
		GroupID:   g.ID, TMDBID: 70523, Title: "Dark",
	})
	require.NoError(t, err)
	_, err = eventLog.Append(&events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, 0),
	})
	require.NoError(t, err)

	_, h := newTestServer(t, ServerDeps{Library: store, EventLog: eventLog})

	w := do(t, h, http.MethodGet, "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[listEventsResponse](t, w)
	require.Equal(t, 2, all.Total)
	assert.Equal(t, events.EventScanCompleted, all.Items[0].EventType, "newest first")

	w = do(t, h, http.MethodGet, "/api/v1/events?type="+events.EventGroupMatched, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[listEventsResponse](t, w).Total)

	w = do(t, h, http.MethodGet, "/api/v1/groups/"+itoa(g.ID)+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listEventsResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, events.EventGroupMatched, resp.Items[0].EventType)
	assert.Contains(t, resp.Items[0].Payload, `"tmdb_id":70523`)

	w = do(t, h, http.MethodGet, "/api/v1/events?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEvents_NoEventLog(t *testing.T) {
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t)})
	w := do(t, h, http.MethodGet, "/api/v1/events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStreamEvents(t *testing.T) {
	bus := events.NewBus(nil, testLogger())
	t.Cleanup(func() { _ = bus.Close() })
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t), Bus: bus})

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		server.URL+"/api/v1/events/stream?type="+events.EventTransferProgressed, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// the subscription exists once headers are flushed
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = bus.Publish(context.Background(), &events.ScanCompleted{
			BaseEvent: events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, 0),
		})
		_ = bus.Publish(context.Background(), &events.TransferProgressed{
			BaseEvent: events.NewBaseEvent(events.EventTransferProgressed, events.EntityJob, 7),
			BatchID:   "b1", JobID: 7, BytesTransferred: 50, TotalBytes: 100, Progress: 0.5, Status: "transferring",
		})
	}()

	reader := bufio.NewReader(resp.Body)
	eventLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: "+events.EventTransferProgressed+"\n", eventLine, "filtered to the requested type")

	dataLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataLine, "data: {"))
	assert.Contains(t, dataLine, `"job_id":7`)
	assert.Contains(t, dataLine, `"progress":0.5`)
}

func TestStreamEvents_NoBus(t *testing.T) {
	_, h := newTestServer(t, ServerDeps{Library: setupStore(t)})
	w := do(t, h, http.MethodGet, "/api/v1/events/stream", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
