package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchdash/backend/internal/domain/tracking"
)

type fakeCarrier struct {
	fetchFn func(ctx context.Context, waybill string) (*tracking.Shipment, error)
}

func (f *fakeCarrier) FetchShipment(ctx context.Context, waybill string) (*tracking.Shipment, error) {
	return f.fetchFn(ctx, waybill)
}

func TestTrackingService_GetTimeline(t *testing.T) {
	eta := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	carrier := &fakeCarrier{
		fetchFn: func(_ context.Context, waybill string) (*tracking.Shipment, error) {
			assert.Equal(t, "AB12345678", waybill)
			return &tracking.Shipment{
				Status: "In Transit",
				Scans: []tracking.Scan{
					{Timestamp: time.Date(2026, 8, 20, 11, 45, 0, 0, time.UTC), Description: "In transit at sorting hub", Location: "Nagpur Hub"},
					{Timestamp: time.Date(2026, 8, 19, 16, 20, 0, 0, time.UTC), Description: "Shipment picked up", Location: "Pune Facility"},
				},
				EstimatedDelivery: &eta,
			}, nil
		},
	}

	svc := NewTrackingService(carrier)
	resp, err := svc.GetTimeline(context.Background(), "AB12345678")
	require.NoError(t, err)

	assert.Equal(t, "in_transit", resp.CurrentStatus)
	require.Len(t, resp.Scans, 2)
	assert.Equal(t, "In transit at sorting hub", resp.Scans[0].Description)
	require.NotNil(t, resp.EstimatedDelivery)
	assert.True(t, resp.EstimatedDelivery.Equal(eta))
}

func TestTrackingService_GetTimeline_EmptyTimeline(t *testing.T) {
	carrier := &fakeCarrier{
		fetchFn: func(_ context.Context, _ string) (*tracking.Shipment, error) {
			return &tracking.Shipment{Status: "Manifested"}, nil
		},
	}

	svc := NewTrackingService(carrier)
	_, err := svc.GetTimeline(context.Background(), "AB12345678")
	assert.ErrorIs(t, err, tracking.ErrEmptyTimeline)
}

func TestTrackingService_GetTimeline_CarrierError(t *testing.T) {
	carrier := &fakeCarrier{
		fetchFn: func(_ context.Context, _ string) (*tracking.Shipment, error) {
			return nil, tracking.ErrShipmentNotFound
		},
	}

	svc := NewTrackingService(carrier)
	_, err := svc.GetTimeline(context.Background(), "ZZ99999999")
	assert.ErrorIs(t, err, tracking.ErrShipmentNotFound)
}
