// Package errors provides string codes for error instantiation.

package errors

const (
	RequestBodyReadingError = "failed to read request body"
	MarshallingError        = "failed to marshall response body"
	BadGzipBodyError        = "failed to decode gzip request body"
	RateLimitExceededError  = "rate limit exceeded"
	InvalidLimitError       = "invalid limit parameter"
)
