// Package modeldto provides models for data transfer objects.

package modeldto

import "time"

type (
	ResponseCatchall struct {
		Method      string            `json:"method" example:"GET"`
		Path        string            `json:"path" example:"/hooks/github"`
		QueryParams map[string]string `json:"query_params"`
	}

	ResponseCapture struct {
		CaptureID     string            `json:"capture_id" example:"0b05f3e0-6ed3-4d63-a7b9-0a1f2ffdb0e5"`
		Method        string            `json:"method" example:"POST"`
		Path          string            `json:"path" example:"/hooks/github"`
		QueryParams   map[string]string `json:"query_params"`
		Headers       map[string]string `json:"headers"`
		Body          string            `json:"body,omitempty"`
		BodyTruncated bool              `json:"body_truncated"`
		RemoteAddr    string            `json:"remote_addr" example:"10.0.0.1:55000"`
		ReceivedAt    time.Time         `json:"received_at"`
	}

	ResponseCaptureList struct {
		Captures []ResponseCapture `json:"captures"`
		Count    int               `json:"count" example:"20"`
	}

	ResponseStats struct {
		TotalCaptures  int64            `json:"total_captures" example:"1024"`
		ByMethod       map[string]int64 `json:"by_method"`
		CacheEntries   int              `json:"cache_entries" example:"512"`
		CacheHits      int64            `json:"cache_hits" example:"900"`
		CacheMisses    int64            `json:"cache_misses" example:"124"`
		CacheEvictions int64            `json:"cache_evictions" example:"12"`
	}

	ResponseDelivery struct {
		DeliveryID string    `json:"delivery_id" example:"d7a6a0ee-11dd-4a9e-bb2f-82f09e86de40"`
		CaptureID  string    `json:"capture_id" example:"0b05f3e0-6ed3-4d63-a7b9-0a1f2ffdb0e5"`
		TargetURL  string    `json:"target_url" example:"https://sink.example.com/ingest"`
		Status     string    `json:"status" example:"success"`
		StatusCode int       `json:"status_code,omitempty" example:"200"`
		Error      string    `json:"error,omitempty"`
		DurationMS int64     `json:"duration_ms" example:"42"`
		Attempts   int       `json:"attempts" example:"1"`
		CreatedAt  time.Time `json:"created_at"`
	}

	ResponseDeliveryList struct {
		Deliveries []ResponseDelivery `json:"deliveries"`
		Count      int                `json:"count" example:"10"`
	}

	ResponseHealth struct {
		Status  string `json:"status" example:"ok"`
		Version string `json:"version" example:"0.0.1"`
	}
)
