// Package errors provides string codes for error instantiation.

package errors

const (
	CaptureStoreError    = "could not store capture in DB"
	CaptureNotFoundError = "could not find captureID"
	CaptureFetchError    = "could not fetch capture from DB"
	CaptureListError     = "could not list captures from DB"
	CaptureStatsError    = "could not compute capture statistics"
	CapturePublishError  = "could not publish capture notification"
	CaptureEncodingError = "could not serialize a capture notification"
)
