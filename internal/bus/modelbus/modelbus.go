// Package modelbus provides models for AMQP transfer objects.

package modelbus

import "time"

type MsgCapture struct {
	CaptureID  string    `json:"capture_id" msgpack:"capture_id"`
	Method     string    `json:"method" msgpack:"method"`
	Path       string    `json:"path" msgpack:"path"`
	ReceivedAt time.Time `json:"received_at" msgpack:"received_at"`
}

type DeliveryRsp struct {
	CaptureID string `json:"capture_id" msgpack:"capture_id"`
	TargetURL string `json:"target_url" msgpack:"target_url"`
	RspType   string `json:"rsp_type" msgpack:"rsp_type"`
	Delivered bool   `json:"delivered" msgpack:"delivered"`
}
