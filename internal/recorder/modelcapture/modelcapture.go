// Package modelcapture provides models for captured request data.

package modelcapture

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// CaptureRecord holds one captured HTTP request in full.
type CaptureRecord struct {
	CaptureID     string            `json:"capture_id"`
	Method        string            `json:"method"`
	Path          string            `json:"path"`
	Query         map[string]string `json:"query_params"`
	Headers       map[string]string `json:"headers"`
	Body          string            `json:"body,omitempty"`
	BodyTruncated bool              `json:"body_truncated,omitempty"`
	RemoteAddr    string            `json:"remote_addr,omitempty"`
	ReceivedAt    time.Time         `json:"received_at"`
}

// NewCaptureRecord assembles a record from a request whose body has already
// been drained by the caller.
func NewCaptureRecord(r *http.Request, body []byte, truncated bool) *CaptureRecord {
	return &CaptureRecord{
		CaptureID:     uuid.New().String(),
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         QueryFromValues(r.URL.Query()),
		Headers:       HeadersFromHTTP(r.Header),
		Body:          string(body),
		BodyTruncated: truncated,
		RemoteAddr:    r.RemoteAddr,
		ReceivedAt:    time.Now().UTC(),
	}
}

// QueryFromValues flattens url.Values into a string map. When a key repeats,
// the last occurrence wins.
func QueryFromValues(values url.Values) map[string]string {
	query := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) == 0 {
			query[key] = ""
			continue
		}
		query[key] = vs[len(vs)-1]
	}
	return query
}

// HeadersFromHTTP flattens an http.Header into a string map keeping the first
// value per canonical key.
func HeadersFromHTTP(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for key, vs := range header {
		if len(vs) == 0 {
			continue
		}
		headers[key] = vs[0]
	}
	return headers
}
