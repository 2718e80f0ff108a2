package tracking

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyTimeline indicates classification was attempted on a shipment with
// zero carrier scans.
var ErrEmptyTimeline = errors.New("tracking: shipment has no scans")

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status represents the classified shipment status
type Status string

const (
	// StatusDelivered indicates the shipment reached the consignee
	StatusDelivered Status = "delivered"
	// StatusInTransit indicates the shipment is moving through the network
	StatusInTransit Status = "in_transit"
	// StatusPickedUp indicates the carrier has collected the shipment
	StatusPickedUp Status = "picked_up"
	// StatusUnknown indicates the latest scan matched no known pattern
	StatusUnknown Status = "unknown"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusDelivered, StatusInTransit, StatusPickedUp, StatusUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Timeline
// ---------------------------------------------------------------------------

// Scan is a single raw carrier scan event
type Scan struct {
	// Timestamp is when the carrier recorded the scan
	Timestamp time.Time
	// Location is the scan facility/city, empty when the carrier omits it
	Location string
	// Description is the carrier's free-text scan description
	Description string
	// Instructions is the carrier's free-text handling note, if any
	Instructions string
}

// Timeline is the classified status plus the ordered scan history for one
// tracking id. Scans keep the carrier API order (most recent first); callers
// wanting chronological order must reverse the slice themselves.
type Timeline struct {
	CurrentStatus     Status
	Scans             []Scan
	EstimatedDelivery *time.Time
}

// Classify derives the shipment timeline from a raw carrier scan list.
//
// The status is a pure function of the most recent scan's description,
// matched case-insensitively in this precedence: "delivered", then
// "transit", then "picked". The scan list is passed through unmodified and
// estimatedDelivery is never computed or inferred, only forwarded.
func Classify(scans []Scan, estimatedDelivery *time.Time) (*Timeline, error) {
	if len(scans) == 0 {
		return nil, ErrEmptyTimeline
	}
	return &Timeline{
		CurrentStatus:     classifyDescription(scans[0].Description),
		Scans:             scans,
		EstimatedDelivery: estimatedDelivery,
	}, nil
}

func classifyDescription(description string) Status {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "delivered"):
		return StatusDelivered
	case strings.Contains(desc, "transit"):
		return StatusInTransit
	case strings.Contains(desc, "picked"):
		return StatusPickedUp
	default:
		return StatusUnknown
	}
}
