package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sentient-soup/reelname/internal/events"
)

// keepAliveInterval is how often an idle event stream sends a comment line.
const keepAliveInterval = 15 * time.Second

func toEventResponses(raw []events.RawEvent) []EventResponse {
	out := make([]EventResponse, len(raw))
	for i, e := range raw {
		out[i] = EventResponse{
			ID:         e.ID,
			EventType:  e.EventType,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Payload:    e.Payload,
			OccurredAt: e.OccurredAt.Format(time.RFC3339),
		}
	}
	return out
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit <= 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PAGINATION", "limit must be positive")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := events.Query{NewestFirst: true, Limit: limit}
	if t := queryString(r, "type"); t != nil {
		q.Types = splitTypes(*t)
	}
	raw, err := s.deps.EventLog.Find(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	items := toEventResponses(raw)
	writeJSON(w, http.StatusOK, listEventsResponse{Items: items, Total: len(items)})
}

func (s *Server) listGroupEvents(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if _, err := s.deps.Library.GetGroup(id); err != nil {
		writeStoreError(w, err, "Group not found")
		return
	}

	raw, err := s.deps.EventLog.Find(events.Query{EntityType: events.EntityGroup, EntityID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	items := toEventResponses(raw)
	writeJSON(w, http.StatusOK, listEventsResponse{Items: items, Total: len(items)})
}

// splitTypes parses a comma separated ?type= value.
func splitTypes(v string) []string {
	var out []string
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// streamEvents relays bus events as server-sent events until the client
// goes away. ?type= narrows the stream to a comma separated list of event
// types, e.g. transfer.progressed for live transfer progress.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Bus == nil {
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Event bus not configured")
		return
	}

	var types []string
	if t := queryString(r, "type"); t != nil {
		types = splitTypes(*t)
	}
	ch := s.deps.Bus.SubscribeTypes(64, types...)
	defer s.deps.Bus.Unsubscribe(ch)

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.log.Warn("event stream unsupported", "error", err)
		return
	}

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Warn("marshal event", "type", ev.EventType(), "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.EventType(), data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
