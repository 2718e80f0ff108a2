package order

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// trackingIDPattern is the accepted waybill format: 8-15 uppercase
// alphanumeric characters.
var trackingIDPattern = regexp.MustCompile(`^[A-Z0-9]{8,15}$`)

// ValidateTrackingID trims the candidate and checks it against the accepted
// waybill format. Empty input is allowed (clears nothing, sets nothing).
func ValidateTrackingID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if !trackingIDPattern.MatchString(trimmed) {
		return "", ErrInvalidTrackingID
	}
	return trimmed, nil
}

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

// ListFilter narrows a Firebase order fetch
type ListFilter struct {
	// Status filters by fulfilment status when non-nil
	Status *Status
	// Search filters by customer name / order id substring
	Search string
}

// Key returns a stable request signature used for single-flight dedup
func (f ListFilter) Key() string {
	status := "all"
	if f.Status != nil {
		status = f.Status.String()
	}
	return fmt.Sprintf("%s|%s|%s", SourceFirebase, status, f.Search)
}

// PageFilter narrows a paginated WooCommerce order fetch
type PageFilter struct {
	// Status filters by fulfilment status when non-nil
	Status *Status
	// Search is the WooCommerce free-text search term
	Search string
	// Page is the 1-indexed page number
	Page int
	// PerPage is the page size
	PerPage int
	// OrderBy is the sort field (date, id, title)
	OrderBy string
	// Order is the sort direction (asc, desc)
	Order string
}

// Normalize applies the default page window and sort
func (f *PageFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	if f.OrderBy == "" {
		f.OrderBy = "date"
	}
	if f.Order != "asc" {
		f.Order = "desc"
	}
}

// Key returns a stable request signature used for single-flight dedup
func (f PageFilter) Key() string {
	status := "all"
	if f.Status != nil {
		status = f.Status.String()
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d|%s|%s",
		SourceWooCommerce, status, f.Search, f.Page, f.PerPage, f.OrderBy, f.Order)
}

// PagedOrders is one page of WooCommerce orders plus the pagination totals
// read from the X-WP-Total / X-WP-TotalPages response headers.
type PagedOrders struct {
	Orders     []Order
	Total      int64
	TotalPages int
}

// ---------------------------------------------------------------------------
// Mutation patch
// ---------------------------------------------------------------------------

// Patch is a partial update applied to a single order. Nil fields are left
// untouched by the origin store.
type Patch struct {
	Status        *Status
	PaymentMethod *PaymentMethod
	TrackingID    *string
	DesignURL     *string
}

// IsEmpty returns true when the patch carries no fields
func (p Patch) IsEmpty() bool {
	return p.Status == nil && p.PaymentMethod == nil && p.TrackingID == nil && p.DesignURL == nil
}

// Validate checks the patch before any network call is issued. The tracking
// id, when present and non-empty, must match the accepted waybill format; the
// validated (trimmed) value replaces the raw one.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Field: "patch", Err: ErrEmptyPatch}
	}
	if p.Status != nil && !p.Status.IsValid() {
		return &ValidationError{Field: "status", Err: fmt.Errorf("unknown status %q", *p.Status)}
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.IsValid() {
		return &ValidationError{Field: "payment_method", Err: fmt.Errorf("unknown payment method %q", *p.PaymentMethod)}
	}
	if p.TrackingID != nil && *p.TrackingID != "" {
		validated, err := ValidateTrackingID(*p.TrackingID)
		if err != nil {
			return &ValidationError{Field: "tracking_id", Err: err}
		}
		p.TrackingID = &validated
	}
	return nil
}

// ---------------------------------------------------------------------------
// Channel Ports
// ---------------------------------------------------------------------------

// FirebaseChannel is the port for the Firebase-backed order store.
// Implementations live in the infrastructure layer; write operations hit the
// origin store only, never a local copy.
type FirebaseChannel interface {
	// FetchOrders fetches and normalizes orders matching the filter
	FetchOrders(ctx context.Context, filter ListFilter) ([]Order, error)

	// CreateOrder creates a new order in the origin store
	CreateOrder(ctx context.Context, o *Order) error

	// UpdateOrder applies a partial update to the order with the given
	// source-local id. The patch must already be validated; updatedAt is
	// stamped on the outgoing payload.
	UpdateOrder(ctx context.Context, id string, patch Patch, updatedAt time.Time) error

	// DeleteOrder removes the order with the given source-local id
	DeleteOrder(ctx context.Context, id string) error
}

// WooCommerceChannel is the port for the WooCommerce store (read-only).
type WooCommerceChannel interface {
	// FetchOrders fetches one page of normalized orders
	FetchOrders(ctx context.Context, filter PageFilter) (*PagedOrders, error)

	// FetchProduct fetches catalog details used to enrich a single
	// order's line items when it is individually inspected
	FetchProduct(ctx context.Context, productID int64) (*ProductDetails, error)
}
