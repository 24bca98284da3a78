package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// StreamEvents streams all ledger notifications via SSE. Each event is
// sent as "event: <kind>" with the payload as JSON data.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported")
		return
	}

	events := h.engine.Events(r.Context())

	_, _ = fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Comment line, not a real event; keeps the connection alive.
			_, _ = fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case env, ok := <-events:
			if !ok {
				return
			}

			data, err := json.Marshal(eventToJSON(env.Payload, env.Timestamp))
			if err != nil {
				log.Error(log.CatAPI, "failed to marshal event", "error", err)
				continue
			}

			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Payload.Kind, data)
			flusher.Flush()
		}
	}
}

func eventToJSON(ev ledger.Event, ts time.Time) map[string]any {
	result := map[string]any{
		"kind":      string(ev.Kind),
		"timestamp": ts,
	}

	switch {
	case ev.ParticipantRegistered != nil:
		result["payload"] = ev.ParticipantRegistered
	case ev.ParticipantStatusChanged != nil:
		result["payload"] = ev.ParticipantStatusChanged
	case ev.TokenMinted != nil:
		result["payload"] = ev.TokenMinted
	case ev.TransferCreated != nil:
		result["payload"] = ev.TransferCreated
	case ev.TransferStatusChanged != nil:
		result["payload"] = ev.TransferStatusChanged
	case ev.TokenOwnerChanged != nil:
		result["payload"] = ev.TokenOwnerChanged
	}

	return result
}
