package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const streamKeepAlive = 25 * time.Second

// streamNotes sends the filtered note list as a server-sent "notes" event,
// then a fresh list after every change, until the client goes away.
func (rt *Router) streamNotes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	controller := http.NewResponseController(w)
	snapshots, err := rt.notes.Watch(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// The server write timeout would otherwise cut the stream.
	_ = controller.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := controller.Flush(); err != nil {
		slog.Warn("notes_stream_unsupported", "request_id", requestIDFromContext(r.Context()), "error", err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.StreamOpened()
		defer rt.metrics.StreamClosed()
	}

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case notes, ok := <-snapshots:
			if !ok {
				return
			}
			payload, err := json.Marshal(map[string]any{"notes": notes})
			if err != nil {
				slog.Error("notes_stream_encode_failed", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: notes\ndata: %s\n\n", payload); err != nil {
				return
			}
		}
		if err := controller.Flush(); err != nil {
			return
		}
	}
}
