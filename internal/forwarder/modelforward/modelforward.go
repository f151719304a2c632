// Package modelforward provides models for delivery bookkeeping.

package modelforward

import "time"

// Delivery tracks one forwarding cycle of a captured request.
type Delivery struct {
	DeliveryID string        `json:"delivery_id"`
	CaptureID  string        `json:"capture_id"`
	TargetURL  string        `json:"target_url"`
	Status     string        `json:"status"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	Attempts   int           `json:"attempts"`
	CreatedAt  time.Time     `json:"created_at"`
}
