package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// prepareSSE switches the response into server-sent-event mode. Flushing
// goes through a ResponseController so middleware response wrappers are
// unwrapped transparently.
func prepareSSE(w http.ResponseWriter) (*http.ResponseController, bool) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		return nil, false
	}
	return rc, true
}

// writeSSE sends one event carrying v as its JSON data payload.
func writeSSE(w http.ResponseWriter, rc *http.ResponseController, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return rc.Flush()
}
