// Package shipping implements the carrier tracking port against the
// shipment tracking API.
package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/merchdash/backend/internal/domain/tracking"
)

// maxResponseSize is the maximum allowed carrier response size (5MB)
const maxResponseSize = 5 * 1024 * 1024

// ErrTrackingConfigMissingBaseURL indicates the tracking base URL is unset
var ErrTrackingConfigMissingBaseURL = errors.New("shipping: base URL is required")

// TrackingConfig holds configuration for the carrier tracking API
type TrackingConfig struct {
	// BaseURL is the API base URL (the endpoint lives under /api/tracking)
	BaseURL string
	// APIKey is the optional upstream token, sent as a bearer header
	APIKey string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Validate validates the tracking client configuration
func (c *TrackingConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrTrackingConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

// TrackingClient implements the tracking.Carrier port
type TrackingClient struct {
	config     *TrackingConfig
	httpClient *http.Client
}

// NewTrackingClient creates a new carrier tracking client
func NewTrackingClient(config *TrackingConfig) (*TrackingClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TrackingClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// trackingResponse mirrors the carrier API envelope:
// { ShipmentData: [ { Shipment: { Status, Scans, EstimatedDeliveryDate } } ] }
type trackingResponse struct {
	ShipmentData []struct {
		Shipment *shipmentDoc `json:"Shipment"`
	} `json:"ShipmentData"`
}

type shipmentDoc struct {
	Status                shipmentStatusDoc `json:"Status"`
	Scans                 []scanWrapper     `json:"Scans"`
	EstimatedDeliveryDate string            `json:"EstimatedDeliveryDate"`
}

type shipmentStatusDoc struct {
	Status string `json:"Status"`
}

type scanWrapper struct {
	ScanDetail scanDoc `json:"ScanDetail"`
}

type scanDoc struct {
	Scan            string `json:"Scan"`
	ScanDateTime    string `json:"ScanDateTime"`
	ScannedLocation string `json:"ScannedLocation"`
	Instructions    string `json:"Instructions"`
}

// FetchShipment fetches the raw shipment for one waybill. The scan list is
// forwarded in carrier order (most recent first) without re-sorting.
func (c *TrackingClient) FetchShipment(ctx context.Context, waybill string) (*tracking.Shipment, error) {
	if waybill == "" {
		return nil, tracking.ErrEmptyWaybill
	}

	query := url.Values{}
	query.Set("waybill", waybill)
	endpoint := c.config.BaseURL + "/api/tracking?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tracking.ErrCarrierRequestFailed, err)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tracking.ErrCarrierUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", tracking.ErrCarrierRequestFailed, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: HTTP %d", tracking.ErrShipmentNotFound, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: HTTP %d", tracking.ErrCarrierUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: HTTP %d", tracking.ErrCarrierRequestFailed, resp.StatusCode)
	}

	var payload trackingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", tracking.ErrCarrierInvalidResponse, err)
	}
	if len(payload.ShipmentData) == 0 || payload.ShipmentData[0].Shipment == nil {
		return nil, tracking.ErrShipmentNotFound
	}

	return payload.ShipmentData[0].Shipment.toDomain(), nil
}

// toDomain converts the carrier document into the domain shipment
func (d *shipmentDoc) toDomain() *tracking.Shipment {
	shipment := &tracking.Shipment{
		Status: d.Status.Status,
		Scans:  make([]tracking.Scan, 0, len(d.Scans)),
	}
	for _, wrapper := range d.Scans {
		scan := tracking.Scan{
			Location:     wrapper.ScanDetail.ScannedLocation,
			Description:  wrapper.ScanDetail.Scan,
			Instructions: wrapper.ScanDetail.Instructions,
		}
		if t := parseCarrierTime(wrapper.ScanDetail.ScanDateTime); t != nil {
			scan.Timestamp = *t
		}
		shipment.Scans = append(shipment.Scans, scan)
	}
	shipment.EstimatedDelivery = parseCarrierTime(d.EstimatedDeliveryDate)
	return shipment
}

// parseCarrierTime parses the carrier's timestamp formats, nil when absent
// or unparseable
func parseCarrierTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// Ensure TrackingClient implements the Carrier port
var _ tracking.Carrier = (*TrackingClient)(nil)
