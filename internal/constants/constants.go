// Package constants provides constants.

package constants

const (
	// Version is reported by the CLI and sent as part of the forwarder
	// User-Agent header.
	Version = "0.0.1"

	// ReservedPathPrefix is the only path subtree excluded from capturing;
	// it hosts the inspection and service endpoints.
	ReservedPathPrefix = "/_api/v1"

	DeliveryStatusPending = "pending"
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"

	RunTypeForward = "forward"
	RunTypeReplay  = "replay"

	NA = "NA"
)

// CapturedMethods enumerates the HTTP methods routed to the catchall endpoint.
var CapturedMethods = []string{"DELETE", "GET", "PATCH", "POST", "PUT"}

// ValidDeliveryStatuses enumerates delivery statuses reported by the forwarder.
var ValidDeliveryStatuses = []string{
	DeliveryStatusPending,
	DeliveryStatusSuccess,
	DeliveryStatusFailed}
