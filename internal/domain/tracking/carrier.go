package tracking

import (
	"context"
	"errors"
	"time"
)

// Carrier errors
var (
	ErrEmptyWaybill           = errors.New("tracking: waybill is required")
	ErrShipmentNotFound       = errors.New("tracking: shipment not found")
	ErrCarrierUnavailable     = errors.New("tracking: carrier api unavailable")
	ErrCarrierRequestFailed   = errors.New("tracking: carrier request failed")
	ErrCarrierInvalidResponse = errors.New("tracking: invalid carrier response")
)

// Shipment is the raw carrier view of one waybill: the scan list as
// delivered by the carrier API (most recent first) plus the carrier's
// delivery estimate.
type Shipment struct {
	// Status is the carrier's own status label, kept for diagnostics
	Status string
	// Scans is the raw scan list, most recent first
	Scans []Scan
	// EstimatedDelivery is the carrier's delivery estimate, if any
	EstimatedDelivery *time.Time
}

// Carrier is the port for the external tracking API. Implementations live in
// the infrastructure layer.
type Carrier interface {
	// FetchShipment fetches the raw shipment for one waybill
	FetchShipment(ctx context.Context, waybill string) (*Shipment, error)
}
