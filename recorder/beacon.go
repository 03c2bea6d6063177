package recorder

import (
	"encoding/json"
	"io"
	"net/http"
)

// BeaconHandler returns an http.HandlerFunc that accepts the JSON event
// array a page's beforeunload listener sends via navigator.sendBeacon,
// merges it into r's active recording, and always answers 204 (spec.md
// §4.8: "the beacon endpoint never returns an error to the browser").
func (r *Recorder) BeaconHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		body, err := io.ReadAll(req.Body)
		if err == nil && len(body) > 0 {
			var events []rawEvent
			if json.Unmarshal(body, &events) == nil {
				r.MergeBeacon(events)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
