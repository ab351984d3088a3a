// Package webhook delivers lifecycle events to an external HTTP endpoint.
// Delivery is fire-and-forget: a failed POST is logged and dropped, never
// retried, and never affects the job that produced the event.
package webhook

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"github.com/sootlabs/soot/internal/model"
)

// Emitter posts lifecycle events to a configured ingest URL.
type Emitter struct {
	url    string
	client *http.Client
}

// NewEmitter creates an emitter targeting the given URL. An empty URL
// disables delivery; Emit becomes a no-op and jobs run unobserved.
func NewEmitter(url string) *Emitter {
	return &Emitter{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Emit posts a single event as JSON and returns without waiting for the
// delivery. Errors are logged and swallowed.
func (e *Emitter) Emit(ev model.Event) {
	if e.url == "" {
		return
	}

	data, err := ev.Encode()
	if err != nil {
		log.Printf("webhook: encoding %s event: %v", ev.Type, err)
		return
	}

	go e.post(ev.Type, data)
}

func (e *Emitter) post(typ model.EventType, data []byte) {
	resp, err := e.client.Post(e.url, "application/json", bytes.NewReader(data))
	if err != nil {
		log.Printf("webhook: delivering %s event: %v", typ, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("webhook: delivering %s event: status %d", typ, resp.StatusCode)
	}
}
