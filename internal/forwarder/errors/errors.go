// Package errors provides custom error types.

package errors

import "fmt"

type TargetNotConfiguredError struct {
	Err error
}

func (e *TargetNotConfiguredError) Error() string {
	return "forward target URL is not configured"
}

type RequestBuildError struct {
	Err       error
	TargetURL string
}

func (e *RequestBuildError) Error() string {
	return fmt.Sprintf("could not build a request to %s: %s", e.TargetURL, e.Err.Error())
}

type DeliveryError struct {
	Err       error
	CaptureID string
	TargetURL string
	Attempts  int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("could not deliver capture %s to %s after %d attempt(s): %s", e.CaptureID, e.TargetURL, e.Attempts, e.Err.Error())
}
