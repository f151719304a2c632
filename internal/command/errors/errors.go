// Package errors provides string codes for error instantiation.

package errors

const (
	CaptureNotFoundError  = "could not find captureID in DB"
	CaptureListingError   = "could not list captures from DB"
	CapturePurgeError     = "could not purge captures from DB"
	CaptureArchivingError = "could not archive captures"
	CaptureReplayError    = "could not replay capture"
	MigrationError        = "could not perform migration"
	ResetError            = "could not perform DB drop"
)
