/*
stream.go - Server-sent events for live report sync

PURPOSE:
  Streams fresh aggregate reports to browsers over SSE. Each connection
  is one notifier subscription: the first report arrives immediately,
  then every ledger mutation or poll tick pushes a recomputed one. A
  refresh failure is streamed too, flagged sync_failed, so the client
  keeps its last-known table and shows a degraded badge instead of
  erroring out.

SEE ALSO:
  - ../shift/notifier.go: The subscription mechanics behind this
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamReport streams live report updates for the given query.
// GET /api/report/stream?preset=...  (same parameters as /api/report)
func (h *Handler) StreamReport(w http.ResponseWriter, r *http.Request) {
	q, err := h.queryFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.Notifier.Subscribe(q)
	defer h.Notifier.Unsubscribe(sub.ID)

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-sub.Updates:
			if !open {
				return
			}
			dto := toReportDTO(update.Report)
			dto.SyncFailed = update.SyncFailed

			payload, err := json.Marshal(dto)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: report\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
