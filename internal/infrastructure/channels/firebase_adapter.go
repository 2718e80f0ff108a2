package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/merchdash/backend/internal/domain/order"
)

// maxResponseSize is the maximum allowed upstream response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// FirebaseAdapter implements the FirebaseChannel port against the
// Firebase-backed orders API.
type FirebaseAdapter struct {
	config     *FirebaseConfig
	httpClient *http.Client
}

// NewFirebaseAdapter creates a new Firebase channel adapter
func NewFirebaseAdapter(config *FirebaseConfig) (*FirebaseAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &FirebaseAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// FetchOrders fetches and normalizes orders matching the filter.
// A status filter selects the /firebase/orders/{pending|completed} path
// segment; search goes through the query string.
func (a *FirebaseAdapter) FetchOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	path := "/firebase/orders"
	if filter.Status != nil {
		path += "/" + filter.Status.String()
	}

	query := url.Values{}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	body, err := a.doRequest(ctx, http.MethodGet, "FetchOrders", path, query, nil)
	if err != nil {
		return nil, err
	}

	var docs []firebaseOrderDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, order.NewMalformedResponseError(order.SourceFirebase, "FetchOrders", err)
	}

	orders := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.toDomain())
	}
	return orders, nil
}

// CreateOrder creates a new order in the origin store. The result is not
// merged into any cache; the caller must re-fetch.
func (a *FirebaseAdapter) CreateOrder(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	doc := firebaseDocFromDomain(o)
	_, err := a.doRequest(ctx, http.MethodPost, "CreateOrder", "/firebase/orders", nil, doc)
	return err
}

// UpdateOrder applies a validated partial update via PUT; the body carries
// the id plus only the patched fields, with updatedAt stamped.
func (a *FirebaseAdapter) UpdateOrder(ctx context.Context, id string, patch order.Patch, updatedAt time.Time) error {
	body := firebaseUpdateBody{
		ID:         id,
		TrackingID: patch.TrackingID,
		DesignURL:  patch.DesignURL,
		UpdatedAt:  updatedAt.UTC().Format(time.RFC3339),
	}
	if patch.Status != nil {
		s := patch.Status.String()
		body.Status = &s
	}
	if patch.PaymentMethod != nil {
		m := patch.PaymentMethod.String()
		body.PaymentMethod = &m
	}

	_, err := a.doRequest(ctx, http.MethodPut, "UpdateOrder", "/firebase/orders", nil, body)
	return err
}

// DeleteOrder removes the order with the given source-local id
func (a *FirebaseAdapter) DeleteOrder(ctx context.Context, id string) error {
	query := url.Values{}
	query.Set("id", id)
	_, err := a.doRequest(ctx, http.MethodDelete, "DeleteOrder", "/firebase/orders", query, nil)
	return err
}

// doRequest performs an authenticated request against the Firebase orders
// API and returns the raw response body. Transport failures and non-2xx
// responses come back as typed NetworkErrors carrying the source tag.
func (a *FirebaseAdapter) doRequest(ctx context.Context, method, op, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := a.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, order.NewNetworkError(order.SourceFirebase, op, 0,
				fmt.Errorf("encode request: %w", err))
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, order.NewNetworkError(order.SourceFirebase, op, 0, err)
	}
	req.Header.Set("x-api-key", a.config.APIKey)
	req.SetBasicAuth(a.config.BasicUser, a.config.BasicPassword)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, order.NewNetworkError(order.SourceFirebase, op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, order.NewNetworkError(order.SourceFirebase, op, resp.StatusCode,
			fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, order.NewNetworkError(order.SourceFirebase, op, resp.StatusCode,
			errors.New(parseErrorBody(body)))
	}

	return body, nil
}

// parseErrorBody extracts a message from a best-effort error envelope,
// falling back to a generic message when the body is not parseable.
func parseErrorBody(body []byte) string {
	var envelope firebaseErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil {
		if msg := envelope.String(); msg != "" {
			return msg
		}
	}
	return "request failed"
}

// Ensure FirebaseAdapter implements the FirebaseChannel port
var _ order.FirebaseChannel = (*FirebaseAdapter)(nil)
