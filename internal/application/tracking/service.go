package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/merchdash/backend/internal/domain/tracking"
	"github.com/merchdash/backend/internal/infrastructure/logger"
)

// TrackingService resolves carrier shipment timelines for waybill numbers.
// Concurrent requests for the same waybill are collapsed into one carrier
// call.
type TrackingService struct {
	carrier tracking.Carrier
	group   singleflight.Group
}

// NewTrackingService creates a new TrackingService
func NewTrackingService(carrier tracking.Carrier) *TrackingService {
	return &TrackingService{carrier: carrier}
}

// ScanResponse represents one checkpoint of the shipment timeline
type ScanResponse struct {
	Timestamp    time.Time `json:"timestamp"`
	Location     string    `json:"location,omitempty"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions,omitempty"`
}

// TimelineResponse represents the classified shipment timeline
type TimelineResponse struct {
	CurrentStatus     string         `json:"current_status"`
	Scans             []ScanResponse `json:"scans"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
}

// GetTimeline fetches the carrier shipment for the waybill and classifies
// its current status from the most recent scan.
func (s *TrackingService) GetTimeline(ctx context.Context, waybill string) (*TimelineResponse, error) {
	v, err, _ := s.group.Do(waybill, func() (interface{}, error) {
		shipment, err := s.carrier.FetchShipment(ctx, waybill)
		if err != nil {
			logger.FromContext(ctx).Warn("carrier lookup failed",
				zap.String("waybill", waybill),
				zap.Error(err))
			return nil, err
		}
		return tracking.Classify(shipment.Scans, shipment.EstimatedDelivery)
	})
	if err != nil {
		return nil, err
	}

	timeline := v.(*tracking.Timeline)
	scans := make([]ScanResponse, 0, len(timeline.Scans))
	for _, scan := range timeline.Scans {
		scans = append(scans, ScanResponse{
			Timestamp:    scan.Timestamp,
			Location:     scan.Location,
			Description:  scan.Description,
			Instructions: scan.Instructions,
		})
	}
	return &TimelineResponse{
		CurrentStatus:     timeline.CurrentStatus.String(),
		Scans:             scans,
		EstimatedDelivery: timeline.EstimatedDelivery,
	}, nil
}
