// Package errors provides string codes for error instantiation.

package errors

const (
	ArchiveEncodingError = "failed to encode captures for archiving"
	ArchiveUploadError   = "failed to upload archive"
)
