package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/merchdash/backend/internal/domain/order"
	"github.com/merchdash/backend/internal/infrastructure/logger"
)

const (
	// maxReadRetries bounds the exponential backoff applied to transient
	// read failures. Writes are never retried.
	maxReadRetries = 3

	// enrichConcurrency bounds the parallel catalog lookups performed when a
	// single WooCommerce order is inspected
	enrichConcurrency = 4
)

// OrderService provides application-level order operations over both sales
// channels. Reads fan out to the channel adapters; mutations go to the
// Firebase origin store only.
type OrderService struct {
	firebase    order.FirebaseChannel
	woocommerce order.WooCommerceChannel
	invalidator order.ListInvalidator
	group       singleflight.Group
	now         func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	firebase order.FirebaseChannel,
	woocommerce order.WooCommerceChannel,
	invalidator order.ListInvalidator,
) *OrderService {
	return &OrderService{
		firebase:    firebase,
		woocommerce: woocommerce,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// ===================== Request / Response DTOs =====================

// ListOrdersRequest defines the query for an order list
type ListOrdersRequest struct {
	Source  string `form:"source" binding:"required,oneof=firebase woocommerce"`
	Status  string `form:"status" binding:"omitempty,oneof=pending completed"`
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	OrderBy string `form:"orderby" binding:"omitempty,oneof=date id title"`
	Order   string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse represents one line item of an order
type ProductResponse struct {
	ProductID      int64  `json:"product_id,omitempty"`
	SKU            string `json:"sku,omitempty"`
	Name           string `json:"name"`
	UnitPrice      string `json:"unit_price"`
	Qty            int    `json:"qty"`
	Subtotal       string `json:"subtotal"`
	Colour         string `json:"colour"`
	Size           string `json:"size,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	ProductPageURL string `json:"product_page_url,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
}

// OrderResponse represents one normalized order
type OrderResponse struct {
	ID            string            `json:"id"`
	Source        string            `json:"source"`
	OrderID       string            `json:"order_id"`
	CustomerName  string            `json:"customer_name"`
	Status        string            `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	Products      []ProductResponse `json:"products"`
	Revenue       string            `json:"revenue"`
	TrackingID    string            `json:"tracking_id,omitempty"`
	DesignURL     string            `json:"design_url,omitempty"`
	CreatedAt     *time.Time        `json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
}

// ListOrdersResponse is one fetched order-list partition. Version is the
// partition version at fetch time; clients re-issue the fetch when a
// mutation bumps it.
type ListOrdersResponse struct {
	Orders     []OrderResponse `json:"orders"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Version    int64           `json:"version"`
}

// CreateProductRequest is one line item of a new order
type CreateProductRequest struct {
	SKU       string `json:"sku"`
	Name      string `json:"name" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	Qty       int    `json:"qty" binding:"required,min=1"`
	Colour    string `json:"colour"`
	Size      string `json:"size"`
}

// CreateOrderRequest defines a new Firebase order
type CreateOrderRequest struct {
	OrderID       string                 `json:"order_id"`
	CustomerName  string                 `json:"customer_name" binding:"required"`
	Status        string                 `json:"status" binding:"omitempty,oneof=pending completed"`
	PaymentMethod string                 `json:"payment_method"`
	Products      []CreateProductRequest `json:"products" binding:"required,min=1,dive"`
	TrackingID    string                 `json:"tracking_id"`
	DesignURL     string                 `json:"design_url"`
}

// UpdateOrderRequest is a partial update; absent fields are left untouched
type UpdateOrderRequest struct {
	Status        *string `json:"status"`
	PaymentMethod *string `json:"payment_method"`
	TrackingID    *string `json:"tracking_id"`
	DesignURL     *string `json:"design_url"`
}

// ===================== List =====================

// ListOrders fetches one order-list partition from the requested channel.
// Identical concurrent requests are collapsed into a single upstream fetch;
// the partition version is part of the collapse key so a mutation always
// forces a fresh fetch instead of joining a stale in-flight one.
func (s *OrderService) ListOrders(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	source := order.Source(req.Source)
	status := statusPtr(req.Status)

	version, err := s.invalidator.Version(ctx, order.PartitionKey{Source: source, Status: status})
	if err != nil {
		return nil, err
	}

	switch source {
	case order.SourceFirebase:
		return s.listFirebase(ctx, req, status, version)
	case order.SourceWooCommerce:
		return s.listWooCommerce(ctx, req, status, version)
	default:
		return nil, order.ErrInvalidSource
	}
}

func (s *OrderService) listFirebase(ctx context.Context, req ListOrdersRequest, status *order.Status, version int64) (*ListOrdersResponse, error) {
	filter := order.ListFilter{Status: status, Search: req.Search}
	key := fmt.Sprintf("v%d|%s", version, filter.Key())

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var orders []order.Order
		err := s.retryRead(ctx, func() error {
			fetched, err := s.firebase.FetchOrders(ctx, filter)
			if err != nil {
				return err
			}
			orders = fetched
			return nil
		})
		return orders, err
	})
	if err != nil {
		return nil, err
	}

	orders := v.([]order.Order)
	return &ListOrdersResponse{
		Orders:     toOrderResponses(orders),
		Total:      int64(len(orders)),
		TotalPages: 1,
		Page:       1,
		PerPage:    len(orders),
		Version:    version,
	}, nil
}

func (s *OrderService) listWooCommerce(ctx context.Context, req ListOrdersRequest, status *order.Status, version int64) (*ListOrdersResponse, error) {
	filter := order.PageFilter{
		Status:  status,
		Search:  req.Search,
		Page:    req.Page,
		PerPage: req.PerPage,
		OrderBy: req.OrderBy,
		Order:   req.Order,
	}
	filter.Normalize()
	key := fmt.Sprintf("v%d|%s", version, filter.Key())

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		var paged *order.PagedOrders
		err := s.retryRead(ctx, func() error {
			fetched, err := s.woocommerce.FetchOrders(ctx, filter)
			if err != nil {
				return err
			}
			paged = fetched
			return nil
		})
		return paged, err
	})
	if err != nil {
		return nil, err
	}

	paged := v.(*order.PagedOrders)
	return &ListOrdersResponse{
		Orders:     toOrderResponses(paged.Orders),
		Total:      paged.Total,
		TotalPages: paged.TotalPages,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		Version:    version,
	}, nil
}

// ===================== Get =====================

// GetOrder looks up a single order by its business order id within one
// channel. WooCommerce line items are enriched with catalog details; list
// views never pay that cost.
func (s *OrderService) GetOrder(ctx context.Context, source order.Source, orderID string) (*OrderResponse, error) {
	switch source {
	case order.SourceFirebase:
		return s.getFirebaseOrder(ctx, orderID)
	case order.SourceWooCommerce:
		return s.getWooCommerceOrder(ctx, orderID)
	default:
		return nil, order.ErrInvalidSource
	}
}

func (s *OrderService) getFirebaseOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	var orders []order.Order
	err := s.retryRead(ctx, func() error {
		fetched, err := s.firebase.FetchOrders(ctx, order.ListFilter{Search: orderID})
		if err != nil {
			return err
		}
		orders = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].ID == orderID || orders[i].OrderID == orderID {
			resp := toOrderResponse(&orders[i])
			return &resp, nil
		}
	}
	return nil, &order.NotFoundError{Source: order.SourceFirebase, OrderID: orderID}
}

func (s *OrderService) getWooCommerceOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	filter := order.PageFilter{Search: orderID}
	filter.Normalize()

	var paged *order.PagedOrders
	err := s.retryRead(ctx, func() error {
		fetched, err := s.woocommerce.FetchOrders(ctx, filter)
		if err != nil {
			return err
		}
		paged = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range paged.Orders {
		o := &paged.Orders[i]
		if o.ID == orderID || o.OrderID == orderID {
			s.enrichProducts(ctx, o)
			resp := toOrderResponse(o)
			return &resp, nil
		}
	}
	return nil, &order.NotFoundError{Source: order.SourceWooCommerce, OrderID: orderID}
}

// enrichProducts fills catalog fields (image, permalink, download) on the
// order's line items. Enrichment is best effort: a missing catalog product
// must not hide the order itself.
func (s *OrderService) enrichProducts(ctx context.Context, o *order.Order) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)

	for i := range o.Products {
		if o.Products[i].ProductID == 0 {
			continue
		}
		p := &o.Products[i]
		g.Go(func() error {
			details, err := s.woocommerce.FetchProduct(gctx, p.ProductID)
			if err != nil {
				logger.FromContext(ctx).Warn("product enrichment skipped",
					zap.Int64("product_id", p.ProductID),
					zap.Error(err))
				return nil
			}
			p.ImageURL = details.ImageURL
			p.ProductPageURL = details.Permalink
			p.DownloadURL = details.DownloadURL
			return nil
		})
	}
	_ = g.Wait()
}

// ===================== Mutations =====================

// CreateOrder creates a new order in the Firebase origin store and
// invalidates the affected list partitions.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	o, err := s.buildOrder(req)
	if err != nil {
		return nil, err
	}

	if err := s.firebase.CreateOrder(ctx, o); err != nil {
		return nil, err
	}

	s.invalidatePartitions(ctx, o.Status)
	resp := toOrderResponse(o)
	return &resp, nil
}

// UpdateOrder applies a partial update to a Firebase order. The patch is
// validated before any network call; on success the affected list partitions
// are invalidated so readers re-fetch instead of patching cached lists.
// The write is never retried.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, req UpdateOrderRequest) error {
	patch := order.Patch{
		TrackingID: req.TrackingID,
		DesignURL:  req.DesignURL,
	}
	if req.Status != nil {
		st := order.Status(*req.Status)
		patch.Status = &st
	}
	if req.PaymentMethod != nil {
		pm := order.PaymentMethod(*req.PaymentMethod)
		patch.PaymentMethod = &pm
	}

	if err := patch.Validate(); err != nil {
		return err
	}

	if err := s.firebase.UpdateOrder(ctx, id, patch, s.now().UTC()); err != nil {
		return err
	}

	// A status change moves the order between partitions; both are stale.
	s.invalidatePartitions(ctx, order.StatusPending)
	s.invalidatePartitions(ctx, order.StatusCompleted)
	return nil
}

// DeleteOrder removes a Firebase order and invalidates the list partitions
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.firebase.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.invalidatePartitions(ctx, order.StatusPending)
	s.invalidatePartitions(ctx, order.StatusCompleted)
	return nil
}

func (s *OrderService) buildOrder(req CreateOrderRequest) (*order.Order, error) {
	products := make([]order.Product, 0, len(req.Products))
	for _, p := range req.Products {
		unitPrice, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			return nil, &order.ValidationError{Field: "unit_price", Err: err}
		}
		colour := p.Colour
		if colour == "" {
			colour = order.DefaultColour
		}
		products = append(products, order.Product{
			SKU:       p.SKU,
			Name:      p.Name,
			UnitPrice: unitPrice,
			Qty:       p.Qty,
			Colour:    colour,
			Size:      p.Size,
		})
	}

	trackingID, err := order.ValidateTrackingID(req.TrackingID)
	if err != nil {
		return nil, &order.ValidationError{Field: "tracking_id", Err: err}
	}

	now := s.now().UTC()
	orderID := req.OrderID
	if orderID == "" {
		orderID = uuid.NewString()
	}

	o := &order.Order{
		ID:            uuid.NewString(),
		Source:        order.SourceFirebase,
		OrderID:       orderID,
		CustomerName:  req.CustomerName,
		Status:        order.ParseStatus(req.Status),
		PaymentMethod: order.ParsePaymentMethod(req.PaymentMethod),
		Products:      products,
		TrackingID:    trackingID,
		DesignURL:     req.DesignURL,
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// invalidatePartitions bumps the Firebase partition for the given status
// (which also bumps the all-statuses partition). A failed bump never fails
// the mutation, but it is logged: readers keep collapsing onto the stale
// version until the next successful invalidation.
func (s *OrderService) invalidatePartitions(ctx context.Context, status order.Status) {
	key := order.PartitionKey{Source: order.SourceFirebase, Status: &status}
	if err := s.invalidator.Invalidate(ctx, key); err != nil {
		logger.FromContext(ctx).Warn("order list invalidation failed",
			zap.String("partition", key.String()),
			zap.Error(err))
	}
}

// ===================== Helpers =====================

// retryRead runs a read operation with exponential backoff on transient
// upstream failures: transport errors and 5xx responses. Anything else
// (4xx, malformed payloads, validation) fails immediately.
func (s *OrderService) retryRead(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxReadRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		var netErr *order.NetworkError
		if errors.As(err, &netErr) {
			if netErr.StatusCode == 0 || netErr.StatusCode >= http.StatusInternalServerError {
				return err
			}
		}
		return backoff.Permanent(err)
	}, policy)
}

func statusPtr(raw string) *order.Status {
	if raw == "" {
		return nil
	}
	st := order.Status(raw)
	return &st
}

func toOrderResponses(orders []order.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, toOrderResponse(&orders[i]))
	}
	return responses
}

func toOrderResponse(o *order.Order) OrderResponse {
	products := make([]ProductResponse, 0, len(o.Products))
	for _, p := range o.Products {
		products = append(products, ProductResponse{
			ProductID:      p.ProductID,
			SKU:            p.SKU,
			Name:           p.Name,
			UnitPrice:      p.UnitPrice.StringFixed(2),
			Qty:            p.Qty,
			Subtotal:       p.Subtotal().StringFixed(2),
			Colour:         p.Colour,
			Size:           p.Size,
			ImageURL:       p.ImageURL,
			ProductPageURL: p.ProductPageURL,
			DownloadURL:    p.DownloadURL,
		})
	}
	return OrderResponse{
		ID:            o.ID,
		Source:        o.Source.String(),
		OrderID:       o.OrderID,
		CustomerName:  o.CustomerName,
		Status:        o.Status.String(),
		PaymentMethod: o.PaymentMethod.String(),
		Products:      products,
		Revenue:       o.Revenue().StringFixed(2),
		TrackingID:    o.TrackingID,
		DesignURL:     o.DesignURL,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
